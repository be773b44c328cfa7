package reconcile

import (
	"testing"
	"time"
)

func srcAt(id int64, title string, publishedAt time.Time) Source {
	return Source{
		ID:          id,
		Platform:    PlatformYouTube,
		Title:       title,
		PublishedAt: publishedAt,
	}
}

func TestClusterSourcesWithinWindow(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clusters := ClusterSources([]Source{
		srcAt(1, "Ep1", base),
		srcAt(2, "ep1", base.Add(47*time.Hour)),
	}, 48)

	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if len(clusters[0].Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(clusters[0].Members))
	}
}

func TestClusterSourcesOutsideWindow(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clusters := ClusterSources([]Source{
		srcAt(1, "Ep1", base),
		srcAt(2, "ep1", base.Add(49*time.Hour)),
	}, 48)

	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
}

func TestClusterSourcesWindowIsInclusive(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clusters := ClusterSources([]Source{
		srcAt(1, "Ep1", base),
		srcAt(2, "ep1", base.Add(48*time.Hour)),
	}, 48)

	if len(clusters) != 1 {
		t.Fatalf("expected exactly 48h apart to cluster together, got %d clusters", len(clusters))
	}
}

func TestClusterSourcesDifferentTitlesNeverMerge(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clusters := ClusterSources([]Source{
		srcAt(1, "Ep1", base),
		srcAt(2, "Ep2", base.Add(time.Minute)),
	}, 48)

	if len(clusters) != 2 {
		t.Fatalf("expected different titles to stay apart, got %d clusters", len(clusters))
	}
}

func TestClusterSourcesFillerWordsShareBucket(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clusters := ClusterSources([]Source{
		srcAt(1, "Mon Film", base),
		srcAt(2, "TEASER: Mon Film !!", base.Add(10*time.Hour)),
	}, 48)

	if len(clusters) != 1 {
		t.Fatalf("expected filler-word title to join the same cluster, got %d clusters", len(clusters))
	}
}

func TestClusterSourcesReferenceDrift(t *testing.T) {
	t.Parallel()

	// Each member lands 40h after the moving reference; the midpoint update
	// lets the chain extend far beyond 48h from the first member.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clusters := ClusterSources([]Source{
		srcAt(1, "Ep1", base),
		srcAt(2, "Ep1", base.Add(40*time.Hour)),  // ref -> 20h
		srcAt(3, "Ep1", base.Add(60*time.Hour)),  // 40h from ref -> joins, ref -> 40h
		srcAt(4, "Ep1", base.Add(80*time.Hour)),  // 40h from ref -> joins
	}, 48)

	if len(clusters) != 1 {
		t.Fatalf("expected drift chain to form one cluster, got %d", len(clusters))
	}
	if got := len(clusters[0].Members); got != 4 {
		t.Fatalf("expected 4 members, got %d", got)
	}
	// 80h is well outside the window of the first member; only the drifting
	// reference makes this possible.
	span := clusters[0].Members[3].PublishedAt.Sub(clusters[0].Members[0].PublishedAt)
	if span != 80*time.Hour {
		t.Fatalf("unexpected member span: %v", span)
	}
}

func TestClusterSourcesMidpointUpdate(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clusters := ClusterSources([]Source{
		srcAt(1, "Ep1", base),
		srcAt(2, "Ep1", base.Add(10*time.Hour)),
	}, 48)

	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	want := base.Add(5 * time.Hour).Unix()
	if clusters[0].RefUnix != want {
		t.Fatalf("expected reference at midpoint %d, got %d", want, clusters[0].RefUnix)
	}
}

func TestClusterSourcesKeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clusters := ClusterSources([]Source{
		srcAt(1, "Beta", base),
		srcAt(2, "Alpha", base.Add(time.Hour)),
		srcAt(3, "Beta", base.Add(2*time.Hour)),
	}, 48)

	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].NormTitle != "beta" || clusters[1].NormTitle != "alpha" {
		t.Fatalf("expected first-seen bucket order, got %q then %q", clusters[0].NormTitle, clusters[1].NormTitle)
	}
}
