package reconcile

import (
	"strings"
	"unicode/utf8"
)

const placeholderTitle = "untitled"

// PickCanonical selects the representative title, description and official
// publish timestamp for one cluster. Title and description each prefer the
// first YouTube member with a non-empty value, then the longest non-empty
// value across all members; the two picks are independent and may come from
// different members. The official timestamp is the earliest publish time
// among non-teaser members, or the earliest overall when every member is a
// teaser.
func PickCanonical(members []Source) CanonicalPick {
	pick := CanonicalPick{
		Title:       pickText(members, func(s Source) string { return s.Title }),
		Description: pickText(members, func(s Source) string { return s.Description }),
	}
	if pick.Title == "" {
		pick.Title = placeholderTitle
	}

	earliest := false
	for _, m := range members {
		if m.IsTeaser {
			continue
		}
		if !earliest || m.PublishedAt.Before(pick.PublishedAt) {
			pick.PublishedAt = m.PublishedAt
			earliest = true
		}
	}
	if !earliest {
		for _, m := range members {
			if !earliest || m.PublishedAt.Before(pick.PublishedAt) {
				pick.PublishedAt = m.PublishedAt
				earliest = true
			}
		}
	}

	return pick
}

func pickText(members []Source, field func(Source) string) string {
	for _, m := range members {
		if m.Platform == PlatformYouTube && strings.TrimSpace(field(m)) != "" {
			return field(m)
		}
	}

	best := ""
	bestLen := 0
	for _, m := range members {
		value := field(m)
		if strings.TrimSpace(value) == "" {
			continue
		}
		if n := utf8.RuneCountInString(value); n > bestLen {
			best = value
			bestLen = n
		}
	}
	return best
}
