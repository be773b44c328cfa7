package reconcile

import "strings"

var teaserKeywords = []string{
	"teaser", "extrait", "trailer", "bande-annonce", "short", "extract", "sneak peek",
}

// teaserMaxDurationSecs is the cutoff below which a clip is assumed to be a
// promotional cut rather than the main video.
const teaserMaxDurationSecs = 45

// LooksLikeTeaser guesses from title, description and duration whether a
// source is a promotional cut. The guess applies once, when a source is
// first collected; reconciliation never re-evaluates it, so a manual MAIN
// override is never undone by it.
func LooksLikeTeaser(title, description string, durationSecs *int) bool {
	t := strings.ToLower(title)
	d := strings.ToLower(description)
	for _, kw := range teaserKeywords {
		if strings.Contains(t, kw) || strings.Contains(d, kw) {
			return true
		}
	}
	if durationSecs != nil && *durationSecs <= teaserMaxDurationSecs {
		return true
	}
	return false
}
