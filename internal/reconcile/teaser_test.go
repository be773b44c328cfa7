package reconcile

import "testing"

func TestLooksLikeTeaserKeywords(t *testing.T) {
	t.Parallel()

	if !LooksLikeTeaser("TEASER Ep1", "", nil) {
		t.Fatalf("expected title keyword to flag as teaser")
	}
	if !LooksLikeTeaser("Ep1", "la bande-annonce officielle", nil) {
		t.Fatalf("expected description keyword to flag as teaser")
	}
	if LooksLikeTeaser("Ep1", "full episode", nil) {
		t.Fatalf("did not expect plain title to flag as teaser")
	}
}

func TestLooksLikeTeaserShortDuration(t *testing.T) {
	t.Parallel()

	short := 30
	long := 600
	if !LooksLikeTeaser("Ep1", "", &short) {
		t.Fatalf("expected 30s clip to flag as teaser")
	}
	if LooksLikeTeaser("Ep1", "", &long) {
		t.Fatalf("did not expect 10min clip to flag as teaser")
	}
}
