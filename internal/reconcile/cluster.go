package reconcile

import "math"

// ClusterSources groups sources by normalized title and temporal proximity.
// Sources must arrive ordered by publish time ascending. Within a title
// bucket a source joins the first open cluster whose reference timestamp is
// within hoursWindow hours; the reference then moves to the midpoint of the
// old reference and the new member's publish time. A chain of sources each
// just inside the window can therefore drift the reference arbitrarily far
// from the first member; that trade-off keeps the pass O(n) per bucket and is
// kept as-is rather than replaced with exhaustive pairwise matching.
func ClusterSources(sources []Source, hoursWindow int) []Cluster {
	if hoursWindow < 1 {
		hoursWindow = 1
	}
	windowSecs := int64(hoursWindow) * 3600

	buckets := map[string][]Cluster{}
	var bucketOrder []string

	for _, src := range sources {
		norm := NormalizeTitle(src.Title)
		if _, seen := buckets[norm]; !seen {
			bucketOrder = append(bucketOrder, norm)
		}

		ts := src.PublishedAt.Unix()
		placed := false
		open := buckets[norm]
		for i := range open {
			delta := ts - open[i].RefUnix
			if delta < 0 {
				delta = -delta
			}
			if delta <= windowSecs {
				open[i].Members = append(open[i].Members, src)
				open[i].RefUnix = midpoint(open[i].RefUnix, ts)
				placed = true
				break
			}
		}
		if !placed {
			open = append(open, Cluster{
				NormTitle: norm,
				RefUnix:   ts,
				Members:   []Source{src},
			})
		}
		buckets[norm] = open
	}

	var clusters []Cluster
	for _, key := range bucketOrder {
		clusters = append(clusters, buckets[key]...)
	}
	return clusters
}

func midpoint(a, b int64) int64 {
	return int64(math.Round(float64(a+b) / 2))
}
