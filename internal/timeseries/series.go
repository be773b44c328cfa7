package timeseries

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Point is one time-bucketed value of a metric series.
type Point struct {
	TS    time.Time `json:"ts"`
	Value int64     `json:"value"`
}

const (
	MetricViews             = "views_native"
	MetricLikes             = "likes"
	MetricComments          = "comments"
	MetricShares            = "shares"
	MetricTotalWatchSeconds = "total_watch_seconds"

	IntervalHour = "hour"
	IntervalDay  = "day"

	AggSum    = "sum"
	AggCumsum = "cumsum"
)

const DefaultRange = 7 * 24 * time.Hour

// PickMetric whitelists the requested metric, falling back to native views.
func PickMetric(m string) string {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case MetricLikes:
		return MetricLikes
	case MetricComments:
		return MetricComments
	case MetricShares:
		return MetricShares
	case MetricTotalWatchSeconds:
		return MetricTotalWatchSeconds
	default:
		return MetricViews
	}
}

func PickInterval(i string) string {
	if strings.ToLower(strings.TrimSpace(i)) == IntervalDay {
		return IntervalDay
	}
	return IntervalHour
}

func PickAgg(a string) string {
	if strings.ToLower(strings.TrimSpace(a)) == AggCumsum {
		return AggCumsum
	}
	return AggSum
}

var rangeRe = regexp.MustCompile(`^(\d+)([hd])$`)

// ParseRange reads a lookback like "24h" or "7d"; anything else falls back
// to the 7-day default.
func ParseRange(raw string) time.Duration {
	m := rangeRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if m == nil {
		return DefaultRange
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DefaultRange
	}
	if m[2] == "h" {
		return time.Duration(n) * time.Hour
	}
	return time.Duration(n) * 24 * time.Hour
}

// SanitizePlatforms parses a CSV of platform names, uppercased and
// de-duplicated, preserving first-seen order.
func SanitizePlatforms(csv string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(csv, ",") {
		p := strings.ToUpper(strings.TrimSpace(part))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// SumPlatforms builds the global series: for every bucket appearing in any
// platform series, the sum of that bucket's per-platform values. Buckets
// come back sorted ascending.
func SumPlatforms(byPlatform map[string][]Point) []Point {
	sums := map[int64]int64{}
	for _, points := range byPlatform {
		for _, p := range points {
			sums[p.TS.Unix()] += p.Value
		}
	}

	keys := make([]int64, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]Point, 0, len(keys))
	for _, k := range keys {
		out = append(out, Point{TS: time.Unix(k, 0).UTC(), Value: sums[k]})
	}
	return out
}

// Cumsum replaces each value with the running total. Points must already be
// sorted ascending.
func Cumsum(points []Point) []Point {
	out := make([]Point, len(points))
	var sum int64
	for i, p := range points {
		sum += p.Value
		out[i] = Point{TS: p.TS, Value: sum}
	}
	return out
}

// Downsample keeps roughly limit points at a uniform stride, always
// retaining the final point so the series ends on the freshest value.
func Downsample(points []Point, limit int) []Point {
	n := len(points)
	if limit <= 0 || n <= limit {
		return points
	}
	step := (n + limit - 1) / limit

	var out []Point
	for i := 0; i < n; i += step {
		out = append(out, points[i])
	}
	if len(out) > 0 && !out[len(out)-1].TS.Equal(points[n-1].TS) {
		out = append(out, points[n-1])
	}
	return out
}

// WarnNonMonotonic flags platform series whose cumulative counters go down,
// which points at a collector problem. One log per platform is enough.
func WarnNonMonotonic(logger zerolog.Logger, byPlatform map[string][]Point) {
	for platform, points := range byPlatform {
		var prev *int64
		for _, p := range points {
			v := p.Value
			if prev != nil && v < *prev {
				logger.Warn().
					Str("platform", platform).
					Time("ts", p.TS).
					Int64("prev", *prev).
					Int64("cur", v).
					Msg("non-monotonic metric series")
				break
			}
			prev = &v
		}
	}
}
