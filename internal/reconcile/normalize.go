package reconcile

import (
	"regexp"
	"strings"
)

// fillerWordsRe spells out Unicode-aware word boundaries: \b is ASCII-only
// in Go, which would strip "extrait" out of words like "extraité".
var (
	fillerWordsRe = regexp.MustCompile(`(^|[^\p{L}\p{N}_])(teaser|trailer|bande-annonce|preview|extrait)([^\p{L}\p{N}_]|$)`)
	separatorsRe  = regexp.MustCompile(`[\s\-_:;,.!?()\[\]{}]+`)
)

// NormalizeTitle reduces a platform title to the key used for clustering:
// lowercase, promotional filler words removed, whitespace and punctuation
// runs collapsed to single spaces, trimmed. Two sources whose normalized
// titles differ never share a cluster.
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	// Repeat until stable: each match consumes its trailing boundary rune,
	// which may be the leading boundary of the next filler word.
	for {
		stripped := fillerWordsRe.ReplaceAllString(t, "$1$3")
		if stripped == t {
			break
		}
		t = stripped
	}
	t = separatorsRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
