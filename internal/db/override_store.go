package db

import (
	"context"
	"strings"
)

// OverrideStore enqueues manual corrections for the next reconciliation run.
type OverrideStore struct {
	pool *Pool
}

func NewOverrideStore(pool *Pool) *OverrideStore {
	return &OverrideStore{pool: pool}
}

// FindSourceID resolves a source by its platform coordinates.
func (s *OverrideStore) FindSourceID(ctx context.Context, platform, platformVideoID string) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM source_video WHERE platform = $1 AND platform_video_id = $2`,
		strings.ToUpper(strings.TrimSpace(platform)), strings.TrimSpace(platformVideoID),
	).Scan(&id)
	if IsNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Enqueue appends one override to the work queue.
func (s *OverrideStore) Enqueue(ctx context.Context, sourceID int64, action string, targetVideoID *int64, createdBy string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reconcile_override (source_video_id, action, target_video_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		sourceID, action, targetVideoID, createdBy)
	return err
}
