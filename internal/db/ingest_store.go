package db

import (
	"context"
	"fmt"

	"crossview/internal/ingest"
)

// IngestStore persists collector batches.
type IngestStore struct {
	pool *Pool
}

func NewIngestStore(pool *Pool) *IngestStore {
	return &IngestStore{pool: pool}
}

// UpsertSource writes one source row keyed by (platform, platform_video_id).
// Optional fields left nil by the collector keep their stored value. The
// teaser guess ($12) only seeds a fresh insert; on conflict the stored flag
// survives unless the item set is_teaser explicitly, so manual MAIN
// overrides are never re-flagged by the heuristic. The xmax check
// distinguishes a fresh insert from a conflict update.
func (s *IngestStore) UpsertSource(ctx context.Context, row ingest.SourceRow) (bool, error) {
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO source_video (
			platform, platform_video_id, platform_format, title, description,
			url, etag, duration_seconds, published_at, is_active, is_teaser,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			COALESCE($10, TRUE), COALESCE($11, $12), now(), now()
		)
		ON CONFLICT (platform, platform_video_id) DO UPDATE SET
			platform_format  = COALESCE(EXCLUDED.platform_format, source_video.platform_format),
			title            = COALESCE(EXCLUDED.title, source_video.title),
			description      = COALESCE(EXCLUDED.description, source_video.description),
			url              = COALESCE(EXCLUDED.url, source_video.url),
			etag             = COALESCE(EXCLUDED.etag, source_video.etag),
			duration_seconds = COALESCE(EXCLUDED.duration_seconds, source_video.duration_seconds),
			published_at     = COALESCE(EXCLUDED.published_at, source_video.published_at),
			is_active        = COALESCE($10, source_video.is_active),
			is_teaser        = COALESCE($11, source_video.is_teaser),
			updated_at       = now()
		RETURNING (xmax = 0)`,
		row.Platform, row.PlatformVideoID, row.PlatformFormat, row.Title,
		row.Description, row.URL, row.ETag, row.DurationSeconds,
		row.PublishedAt, row.IsActive, row.IsTeaser, row.TeaserGuess,
	).Scan(&inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (s *IngestStore) ExistingPlatformIDs(ctx context.Context, platform string, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, platform)
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT platform_video_id
		FROM source_video
		WHERE platform = $1 AND platform_video_id IN `+placeholderList(2, len(ids)),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// EnsureSource resolves the row id for (platform, platform_video_id),
// creating a minimal active row if the collector reported metrics for a
// source that never went through the sources batch.
func (s *IngestStore) EnsureSource(ctx context.Context, platform, platformVideoID string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO source_video (platform, platform_video_id, is_active, created_at, updated_at)
		VALUES ($1, $2, TRUE, now(), now())
		ON CONFLICT (platform, platform_video_id) DO UPDATE SET updated_at = now()
		RETURNING id`,
		platform, platformVideoID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure source %s/%s: %w", platform, platformVideoID, err)
	}
	return id, nil
}

func (s *IngestStore) UpsertSnapshot(ctx context.Context, row ingest.SnapshotRow) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO metric_snapshot (
			source_video_id, snapshot_at, views_native, likes, comments,
			shares, reach, unique_viewers, avg_watch_seconds,
			total_watch_seconds, video_length_seconds, reactions_total,
			reactions_like, reactions_love, reactions_wow, reactions_haha,
			reactions_sad, reactions_angry, legacy_views_3s, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, now()
		)
		ON CONFLICT (source_video_id, snapshot_at) DO UPDATE SET
			views_native         = COALESCE(EXCLUDED.views_native, metric_snapshot.views_native),
			likes                = COALESCE(EXCLUDED.likes, metric_snapshot.likes),
			comments             = COALESCE(EXCLUDED.comments, metric_snapshot.comments),
			shares               = COALESCE(EXCLUDED.shares, metric_snapshot.shares),
			reach                = COALESCE(EXCLUDED.reach, metric_snapshot.reach),
			unique_viewers       = COALESCE(EXCLUDED.unique_viewers, metric_snapshot.unique_viewers),
			avg_watch_seconds    = COALESCE(EXCLUDED.avg_watch_seconds, metric_snapshot.avg_watch_seconds),
			total_watch_seconds  = COALESCE(EXCLUDED.total_watch_seconds, metric_snapshot.total_watch_seconds),
			video_length_seconds = COALESCE(EXCLUDED.video_length_seconds, metric_snapshot.video_length_seconds),
			reactions_total      = COALESCE(EXCLUDED.reactions_total, metric_snapshot.reactions_total),
			reactions_like       = COALESCE(EXCLUDED.reactions_like, metric_snapshot.reactions_like),
			reactions_love       = COALESCE(EXCLUDED.reactions_love, metric_snapshot.reactions_love),
			reactions_wow        = COALESCE(EXCLUDED.reactions_wow, metric_snapshot.reactions_wow),
			reactions_haha       = COALESCE(EXCLUDED.reactions_haha, metric_snapshot.reactions_haha),
			reactions_sad        = COALESCE(EXCLUDED.reactions_sad, metric_snapshot.reactions_sad),
			reactions_angry      = COALESCE(EXCLUDED.reactions_angry, metric_snapshot.reactions_angry),
			legacy_views_3s      = COALESCE(EXCLUDED.legacy_views_3s, metric_snapshot.legacy_views_3s)`,
		row.SourceVideoID, row.SnapshotAt, row.ViewsNative, row.Likes,
		row.Comments, row.Shares, row.Reach, row.UniqueViewers,
		row.AvgWatchSeconds, row.TotalWatchSeconds, row.VideoLengthSeconds,
		row.ReactionsTotal, row.ReactionsLike, row.ReactionsLove,
		row.ReactionsWow, row.ReactionsHaha, row.ReactionsSad,
		row.ReactionsAngry, row.LegacyViews3s)
	return err
}
