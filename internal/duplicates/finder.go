package duplicates

import (
	"context"
	"math"
	"time"
)

const (
	DefaultWindowHours  = 48
	DefaultDurationTolS = 60
	DefaultLimit        = 200
	maxLimit            = 1000
)

// Params are the caller-resolved knobs of one candidate search.
type Params struct {
	WindowHours  int `json:"window_h"`
	DurationTolS int `json:"duration_tol_s"`
	Limit        int `json:"limit"`
	Offset       int `json:"offset"`
}

func (p Params) withDefaults() Params {
	if p.WindowHours <= 0 {
		p.WindowHours = DefaultWindowHours
	}
	if p.DurationTolS <= 0 {
		p.DurationTolS = DefaultDurationTolS
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// SourceInfo is the slice of a source row the pair predicate and the review
// UI need.
type SourceInfo struct {
	ID              int64     `json:"id"`
	Platform        string    `json:"platform"`
	PlatformVideoID string    `json:"platform_video_id"`
	VideoID         *int64    `json:"video_id"`
	Title           *string   `json:"title"`
	PublishedAt     time.Time `json:"published_at"`
	DurationSeconds *int      `json:"duration_seconds"`
}

// Candidate is one suspected duplicate pair, ordered so Source1.ID <
// Source2.ID.
type Candidate struct {
	DeltaHours float64    `json:"delta_h"`
	Source1    SourceInfo `json:"source1"`
	Source2    SourceInfo `json:"source2"`
}

// FindResult is the paginated outcome of one search. Count is the page size,
// not the total.
type FindResult struct {
	Params Params      `json:"params"`
	Count  int         `json:"count"`
	Items  []Candidate `json:"items"`
}

// SourceReader loads the published sources the finder scans.
type SourceReader interface {
	// ListPublishedSources returns every active source with a publish time,
	// ordered by publish time then id ascending.
	ListPublishedSources(ctx context.Context) ([]SourceInfo, error)
}

// Finder scans all published sources pairwise for suspected duplicates. The
// quadratic scan is acceptable for a human-facing review tool; it never runs
// automatically.
type Finder struct {
	reader SourceReader
}

func NewFinder(reader SourceReader) *Finder {
	return &Finder{reader: reader}
}

func (f *Finder) Find(ctx context.Context, params Params) (FindResult, error) {
	params = params.withDefaults()

	sources, err := f.reader.ListPublishedSources(ctx)
	if err != nil {
		return FindResult{}, err
	}

	windowSecs := float64(params.WindowHours) * 3600

	var items []Candidate
	skipped := 0
	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			a, b := sources[i], sources[j]
			if a.ID > b.ID {
				a, b = b, a
			}
			deltaSecs := math.Abs(a.PublishedAt.Sub(b.PublishedAt).Seconds())
			if deltaSecs > windowSecs {
				continue
			}
			if !durationClose(a.DurationSeconds, b.DurationSeconds, params.DurationTolS) {
				continue
			}
			if sameVideo(a.VideoID, b.VideoID) {
				continue
			}
			if skipped < params.Offset {
				skipped++
				continue
			}
			if len(items) >= params.Limit {
				return FindResult{Params: params, Count: len(items), Items: items}, nil
			}
			items = append(items, Candidate{
				DeltaHours: deltaSecs / 3600,
				Source1:    a,
				Source2:    b,
			})
		}
	}

	return FindResult{Params: params, Count: len(items), Items: items}, nil
}

// durationClose treats an unknown duration on either side as a match.
func durationClose(a, b *int, tolSecs int) bool {
	if a == nil || b == nil {
		return true
	}
	diff := *a - *b
	if diff < 0 {
		diff = -diff
	}
	return diff < tolSecs
}

func sameVideo(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}
