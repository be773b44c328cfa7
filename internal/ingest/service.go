package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crossview/internal/reconcile"
)

// SourceRow is the normalized write one valid source item turns into. Nil
// optional fields keep whatever the existing row already has.
type SourceRow struct {
	Platform        string
	PlatformVideoID string
	PlatformFormat  *string
	Title           *string
	Description     *string
	URL             *string
	ETag            *string
	DurationSeconds *int
	PublishedAt     *time.Time
	IsActive        *bool
	IsTeaser        *bool
	// TeaserGuess is the collection-time heuristic result. It only seeds the
	// flag on a fresh insert; an explicit IsTeaser, and any flag already in
	// the store, win over it.
	TeaserGuess bool
}

// SnapshotRow is the normalized write one valid metric item turns into.
type SnapshotRow struct {
	SourceVideoID      int64
	SnapshotAt         time.Time
	ViewsNative        *int64
	Likes              *int64
	Comments           *int64
	Shares             *int64
	Reach              *int64
	UniqueViewers      *int64
	AvgWatchSeconds    *float64
	TotalWatchSeconds  *float64
	VideoLengthSeconds *int
	ReactionsTotal     *int64
	ReactionsLike      *int64
	ReactionsLove      *int64
	ReactionsWow       *int64
	ReactionsHaha      *int64
	ReactionsSad       *int64
	ReactionsAngry     *int64
	LegacyViews3s      *int64
}

// Store is the persistence surface of the ingest service.
type Store interface {
	// UpsertSource inserts or updates on (platform, platform_video_id) and
	// reports whether the row was inserted.
	UpsertSource(ctx context.Context, row SourceRow) (bool, error)
	// ExistingPlatformIDs reports which of the given platform-local ids
	// already have a source row.
	ExistingPlatformIDs(ctx context.Context, platform string, ids []string) (map[string]bool, error)
	// EnsureSource returns the source id for (platform, platform_video_id),
	// creating a minimal active row when none exists.
	EnsureSource(ctx context.Context, platform, platformVideoID string) (int64, error)
	// UpsertSnapshot inserts or updates on (source_video_id, snapshot_at).
	UpsertSnapshot(ctx context.Context, row SnapshotRow) error
}

// ItemError reports why one batch entry was skipped.
type ItemError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// SourceBatchResult summarizes one sources batch-upsert.
type SourceBatchResult struct {
	Inserted int         `json:"inserted"`
	Updated  int         `json:"updated"`
	Skipped  int         `json:"skipped"`
	Errors   []ItemError `json:"errors,omitempty"`
}

// MetricBatchResult summarizes one metrics batch-upsert.
type MetricBatchResult struct {
	Accepted int         `json:"accepted"`
	Skipped  int         `json:"skipped"`
	Errors   []ItemError `json:"errors,omitempty"`
}

// Service validates and persists collector batches. Malformed entries are
// counted and reported per item; a store failure aborts the batch.
type Service struct {
	store  Store
	logger zerolog.Logger
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) BatchUpsertSources(ctx context.Context, items []json.RawMessage) (SourceBatchResult, error) {
	var result SourceBatchResult
	for i, raw := range items {
		item, err := ValidateSourceItem(raw)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ItemError{Index: i, Message: err.Error()})
			continue
		}

		inserted, err := s.store.UpsertSource(ctx, sourceRowFromItem(item))
		if err != nil {
			return SourceBatchResult{}, fmt.Errorf("upsert source %s/%s: %w", item.Platform, item.PlatformVideoID, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	s.logger.Info().
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("sources batch upserted")
	return result, nil
}

// FilterMissing returns the platform-local ids with no source row yet, in
// request order.
func (s *Service) FilterMissing(ctx context.Context, platform string, ids []string) ([]string, error) {
	platform = strings.ToUpper(strings.TrimSpace(platform))
	if !reconcile.KnownPlatform(platform) {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return []string{}, nil
	}

	existing, err := s.store.ExistingPlatformIDs(ctx, platform, cleaned)
	if err != nil {
		return nil, fmt.Errorf("filter missing sources: %w", err)
	}

	missing := make([]string, 0, len(cleaned))
	seen := map[string]bool{}
	for _, id := range cleaned {
		if existing[id] || seen[id] {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}
	return missing, nil
}

func (s *Service) BatchUpsertMetrics(ctx context.Context, items []json.RawMessage) (MetricBatchResult, error) {
	var result MetricBatchResult
	for i, raw := range items {
		item, err := ValidateMetricItem(raw)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ItemError{Index: i, Message: err.Error()})
			continue
		}

		sourceID, err := s.store.EnsureSource(ctx, item.Platform, item.PlatformVideoID)
		if err != nil {
			return MetricBatchResult{}, fmt.Errorf("ensure source %s/%s: %w", item.Platform, item.PlatformVideoID, err)
		}

		row := snapshotRowFromItem(sourceID, item)
		if err := s.store.UpsertSnapshot(ctx, row); err != nil {
			return MetricBatchResult{}, fmt.Errorf("upsert snapshot for source %d: %w", sourceID, err)
		}
		result.Accepted++
	}

	s.logger.Info().
		Int("accepted", result.Accepted).
		Int("skipped", result.Skipped).
		Msg("metrics batch upserted")
	return result, nil
}

func sourceRowFromItem(item *SourceItem) SourceRow {
	row := SourceRow{
		Platform:        item.Platform,
		PlatformVideoID: item.PlatformVideoID,
		PlatformFormat:  item.PlatformFormat,
		Title:           item.Title,
		Description:     item.Description,
		URL:             item.URL,
		ETag:            item.ETag,
		IsActive:        item.IsActive,
		IsTeaser:        item.IsTeaser,
	}
	if item.Duration != nil {
		secs := item.Duration.Seconds
		row.DurationSeconds = &secs
	}
	row.TeaserGuess = reconcile.LooksLikeTeaser(
		derefString(item.Title), derefString(item.Description), row.DurationSeconds)
	if item.PublishedAt != nil {
		// Validated RFC3339 by ValidateSourceItem.
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(*item.PublishedAt)); err == nil {
			utc := ts.UTC()
			row.PublishedAt = &utc
		}
	}
	return row
}

func snapshotRowFromItem(sourceID int64, item *MetricItem) SnapshotRow {
	row := SnapshotRow{
		SourceVideoID:     sourceID,
		ViewsNative:       item.Views,
		Likes:             item.Likes,
		Comments:          item.Comments,
		Shares:            item.Shares,
		Reach:             item.Reach,
		UniqueViewers:     item.UniqueViewers,
		AvgWatchSeconds:   item.AvgWatchSeconds,
		TotalWatchSeconds: item.TotalWatchSeconds,
		LegacyViews3s:     item.LegacyViews3s,
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(item.SnapshotAt)); err == nil {
		row.SnapshotAt = ts.UTC()
	}
	if item.VideoLength != nil {
		secs := item.VideoLength.Seconds
		row.VideoLengthSeconds = &secs
	}
	if item.Reactions != nil {
		row.ReactionsTotal = item.Reactions.Total
		row.ReactionsLike = item.Reactions.Like
		row.ReactionsLove = item.Reactions.Love
		row.ReactionsWow = item.Reactions.Wow
		row.ReactionsHaha = item.Reactions.Haha
		row.ReactionsSad = item.Reactions.Sad
		row.ReactionsAngry = item.Reactions.Angry
	}
	return row
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
