package reconcile

import "testing"

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"TEASER: Mon Film !!", "mon film"},
		{"Mon Film", "mon film"},
		{"  Mon   Film  ", "mon film"},
		{"Ep1", "ep1"},
		{"EP1", "ep1"},
		{"Bande-annonce — Épisode 4", "— épisode 4"},
		{"Official Cut (trailer)", "official cut"},
		{"preview", ""},
		{"La ruée vers l'or - extrait", "la ruée vers l'or"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTitleKeepsEmbeddedFillerWords(t *testing.T) {
	t.Parallel()

	// Only standalone words are stripped, not substrings — including words
	// that continue with an accented letter.
	cases := []struct {
		in   string
		want string
	}{
		{"Previews of tomorrow", "previews of tomorrow"},
		{"L'or extraité du fleuve", "l'or extraité du fleuve"},
		{"teaser trailer Ep1", "ep1"},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
