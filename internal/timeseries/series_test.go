package timeseries

import (
	"testing"
	"time"
)

func pt(t *testing.T, ts string, value int64) Point {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t.Fatalf("parse %q: %v", ts, err)
	}
	return Point{TS: parsed, Value: value}
}

func TestSumPlatforms(t *testing.T) {
	t.Parallel()

	byPlatform := map[string][]Point{
		"YOUTUBE": {
			pt(t, "2024-02-01T00:00:00Z", 100),
			pt(t, "2024-02-01T01:00:00Z", 150),
		},
		"FACEBOOK": {
			pt(t, "2024-02-01T01:00:00Z", 50),
			pt(t, "2024-02-01T02:00:00Z", 60),
		},
	}

	global := SumPlatforms(byPlatform)
	if len(global) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(global))
	}
	want := []int64{100, 200, 60}
	for i, w := range want {
		if global[i].Value != w {
			t.Fatalf("bucket %d: got %d, want %d", i, global[i].Value, w)
		}
	}
	for i := 1; i < len(global); i++ {
		if !global[i-1].TS.Before(global[i].TS) {
			t.Fatalf("buckets not sorted ascending")
		}
	}
}

func TestCumsum(t *testing.T) {
	t.Parallel()

	points := []Point{
		pt(t, "2024-02-01T00:00:00Z", 10),
		pt(t, "2024-02-01T01:00:00Z", 5),
		pt(t, "2024-02-01T02:00:00Z", 7),
	}
	out := Cumsum(points)
	want := []int64{10, 15, 22}
	for i, w := range want {
		if out[i].Value != w {
			t.Fatalf("point %d: got %d, want %d", i, out[i].Value, w)
		}
	}
	if points[1].Value != 5 {
		t.Fatalf("input slice must not be mutated")
	}
}

func TestDownsample(t *testing.T) {
	t.Parallel()

	var points []Point
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		points = append(points, Point{TS: base.Add(time.Duration(i) * time.Hour), Value: int64(i)})
	}

	out := Downsample(points, 4)
	if len(out) > 5 {
		t.Fatalf("expected at most 5 points, got %d", len(out))
	}
	if !out[len(out)-1].TS.Equal(points[9].TS) {
		t.Fatalf("last point must be retained")
	}

	if got := Downsample(points, 100); len(got) != len(points) {
		t.Fatalf("short series must pass through unchanged")
	}
	if got := Downsample(points, 0); len(got) != len(points) {
		t.Fatalf("zero limit disables downsampling")
	}
}

func TestPickers(t *testing.T) {
	t.Parallel()

	if PickMetric("LIKES") != MetricLikes {
		t.Fatalf("expected likes")
	}
	if PickMetric("drop table") != MetricViews {
		t.Fatalf("unknown metric must fall back to views")
	}
	if PickInterval("DAY") != IntervalDay || PickInterval("minute") != IntervalHour {
		t.Fatalf("unexpected interval picks")
	}
	if PickAgg("cumsum") != AggCumsum || PickAgg("avg") != AggSum {
		t.Fatalf("unexpected agg picks")
	}
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	if got := ParseRange("24h"); got != 24*time.Hour {
		t.Fatalf("24h: got %v", got)
	}
	if got := ParseRange("30d"); got != 30*24*time.Hour {
		t.Fatalf("30d: got %v", got)
	}
	if got := ParseRange("soon"); got != DefaultRange {
		t.Fatalf("malformed range must default, got %v", got)
	}
	if got := ParseRange(""); got != DefaultRange {
		t.Fatalf("empty range must default, got %v", got)
	}
}

func TestSanitizePlatforms(t *testing.T) {
	t.Parallel()

	got := SanitizePlatforms(" facebook ,YOUTUBE,facebook,,TIKTOK")
	want := []string{"FACEBOOK", "YOUTUBE", "TIKTOK"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
