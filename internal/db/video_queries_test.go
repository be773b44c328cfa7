package db

import (
	"strings"
	"testing"

	"crossview/internal/reconcile"
)

func TestPlatformViewsColumnCoversEveryKnownPlatform(t *testing.T) {
	t.Parallel()

	platforms := []string{
		reconcile.PlatformYouTube,
		reconcile.PlatformFacebook,
		reconcile.PlatformInstagram,
		reconcile.PlatformTikTok,
		reconcile.PlatformCMS,
	}
	for _, platform := range platforms {
		col, ok := platformViewsColumn(platform)
		if !ok {
			t.Fatalf("platform %s has no rollup column", platform)
		}
		if !strings.Contains(latestRollupCTE, "AS "+col) {
			t.Fatalf("rollup does not compute column %s for platform %s", col, platform)
		}
	}
	if _, ok := platformViewsColumn(" youtube "); !ok {
		t.Fatalf("filter must accept padded lowercase input")
	}
	if _, ok := platformViewsColumn("MYSPACE"); ok {
		t.Fatalf("unknown platform must not produce a filter")
	}
}

func TestPlaceholderList(t *testing.T) {
	t.Parallel()

	cases := []struct {
		start, n int
		want     string
	}{
		{1, 1, "($1)"},
		{2, 3, "($2, $3, $4)"},
		{4, 2, "($4, $5)"},
	}
	for _, tc := range cases {
		if got := placeholderList(tc.start, tc.n); got != tc.want {
			t.Fatalf("placeholderList(%d, %d) = %q, want %q", tc.start, tc.n, got, tc.want)
		}
	}
}

func TestListOrderByWhitelist(t *testing.T) {
	t.Parallel()

	for _, sort := range []string{"", "views_desc", "published_desc", "published_asc", "title_asc", "title_desc", "garbage; DROP TABLE video"} {
		clause := listOrderBy(sort)
		if strings.ContainsAny(clause, ";") || !strings.HasPrefix(clause, "v.") {
			t.Fatalf("unsafe order-by for %q: %s", sort, clause)
		}
	}
}
