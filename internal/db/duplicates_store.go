package db

import (
	"context"
	"fmt"

	"crossview/internal/duplicates"
)

// DuplicateStore backs the duplicate finder and resolver with raw SQL.
type DuplicateStore struct {
	pool *Pool
}

func NewDuplicateStore(pool *Pool) *DuplicateStore {
	return &DuplicateStore{pool: pool}
}

func (s *DuplicateStore) ListPublishedSources(ctx context.Context) ([]duplicates.SourceInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, platform, platform_video_id, video_id, title,
		       published_at, duration_seconds
		FROM source_video
		WHERE is_active AND published_at IS NOT NULL
		ORDER BY published_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []duplicates.SourceInfo
	for rows.Next() {
		var src duplicates.SourceInfo
		if err := rows.Scan(
			&src.ID, &src.Platform, &src.PlatformVideoID, &src.VideoID,
			&src.Title, &src.PublishedAt, &src.DurationSeconds,
		); err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

func (s *DuplicateStore) Begin(ctx context.Context) (duplicates.MergeTx, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("duplicate store is not initialized")
	}
	tx, err := s.pool.BeginTx(ctx, TxOptions{})
	if err != nil {
		return nil, err
	}
	return &mergeTx{tx: tx}, nil
}

type mergeTx struct {
	tx Tx
}

func (t *mergeTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *mergeTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func (t *mergeTx) VideoExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM video WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

func (t *mergeTx) RelinkSource(ctx context.Context, sourceID, videoID int64) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE source_video SET video_id = $2, updated_at = now() WHERE id = $1`,
		sourceID, videoID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (t *mergeTx) CountSourcesForVideo(ctx context.Context, videoID int64) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM source_video WHERE video_id = $1`, videoID,
	).Scan(&n)
	return n, err
}

func (t *mergeTx) DeleteVideo(ctx context.Context, id int64) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM video WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
