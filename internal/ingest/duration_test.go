package ingest

import "testing"

func TestParseDurationSeconds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{"PT1M30S", 90},
		{"PT45S", 45},
		{"PT2H", 7200},
		{"PT1H2M3S", 3723},
		{"P1DT2H", 93600},
		{"P1D", 86400},
		{"90", 90},
		{"0", 0},
		{" PT10S ", 10},
		{"pt1m", 60},
	}
	for _, tc := range cases {
		got, err := ParseDurationSeconds(tc.in)
		if err != nil {
			t.Fatalf("ParseDurationSeconds(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseDurationSeconds(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseDurationSecondsRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "P", "PT", "1.5", "-10", "P1Y", "P2W", "PT1X", "PTS", "abc"} {
		if _, err := ParseDurationSeconds(in); err == nil {
			t.Fatalf("ParseDurationSeconds(%q): expected error", in)
		}
	}
}
