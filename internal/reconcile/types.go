package reconcile

import (
	"fmt"
	"strings"
	"time"
)

const (
	PlatformYouTube   = "YOUTUBE"
	PlatformFacebook  = "FACEBOOK"
	PlatformInstagram = "INSTAGRAM"
	PlatformTikTok    = "TIKTOK"
	PlatformCMS       = "CMS"
)

// KnownPlatform reports whether p is one of the supported platform values.
func KnownPlatform(p string) bool {
	switch p {
	case PlatformYouTube, PlatformFacebook, PlatformInstagram, PlatformTikTok, PlatformCMS:
		return true
	}
	return false
}

// Source is one eligible source row as the clusterer sees it: active,
// unlocked, with a publish time.
type Source struct {
	ID              int64
	Platform        string
	PlatformVideoID string
	VideoID         *int64
	Title           string
	Description     string
	DurationSeconds *int
	PublishedAt     time.Time
	IsTeaser        bool
}

// Action is a manual override verb.
type Action string

const (
	ActionLink   Action = "LINK"
	ActionUnlink Action = "UNLINK"
	ActionTeaser Action = "TEASER"
	ActionMain   Action = "MAIN"
	ActionLock   Action = "LOCK"
	ActionUnlock Action = "UNLOCK"
)

// UnknownActionError is returned when an override action is not one of the
// six supported verbs.
type UnknownActionError struct {
	Value string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown override action %q", e.Value)
}

// ParseAction validates and normalizes an override action string.
func ParseAction(raw string) (Action, error) {
	switch Action(strings.ToUpper(strings.TrimSpace(raw))) {
	case ActionLink:
		return ActionLink, nil
	case ActionUnlink:
		return ActionUnlink, nil
	case ActionTeaser:
		return ActionTeaser, nil
	case ActionMain:
		return ActionMain, nil
	case ActionLock:
		return ActionLock, nil
	case ActionUnlock:
		return ActionUnlock, nil
	}
	return "", &UnknownActionError{Value: raw}
}

// RequiresTarget reports whether the action needs a target video id.
func (a Action) RequiresTarget() bool {
	return a == ActionLink
}

// OverrideEntry is one pending row of the override queue.
type OverrideEntry struct {
	ID            int64
	SourceVideoID int64
	Action        Action
	TargetVideoID *int64
}

// CanonicalPick is the representative title, description and official publish
// timestamp chosen for a cluster.
type CanonicalPick struct {
	Title       string
	Description string
	PublishedAt time.Time
}

// Cluster is a transient group of sources believed to represent the same
// canonical video during one reconciliation run. RefUnix drifts toward later
// members: each placement moves it to the midpoint of the old reference and
// the new member's publish time.
type Cluster struct {
	NormTitle string
	RefUnix   int64
	Members   []Source
}
