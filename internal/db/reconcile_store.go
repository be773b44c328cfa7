package db

import (
	"context"
	"fmt"
	"time"

	"crossview/internal/reconcile"
)

// reconcileLockID keys the transaction-scoped advisory lock that serializes
// reconciliation runs on one database.
const reconcileLockID int64 = 874121001

// ReconcileStore adapts the raw-SQL pool to the runner's transaction surface.
type ReconcileStore struct {
	pool *Pool
}

func NewReconcileStore(pool *Pool) *ReconcileStore {
	return &ReconcileStore{pool: pool}
}

func (s *ReconcileStore) Begin(ctx context.Context) (reconcile.Tx, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("reconcile store is not initialized")
	}
	tx, err := s.pool.BeginTx(ctx, TxOptions{})
	if err != nil {
		return nil, err
	}
	return &reconcileTx{tx: tx}, nil
}

type reconcileTx struct {
	tx Tx
}

func (t *reconcileTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *reconcileTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func (t *reconcileTx) TryReconcileLock(ctx context.Context) (bool, error) {
	var acquired bool
	err := t.tx.QueryRow(ctx,
		`SELECT pg_try_advisory_xact_lock($1)`,
		reconcileLockID,
	).Scan(&acquired)
	if err != nil {
		return false, err
	}
	return acquired, nil
}

func (t *reconcileTx) ListOverrides(ctx context.Context) ([]reconcile.OverrideEntry, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, source_video_id, action, target_video_id
		FROM reconcile_override
		ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reconcile.OverrideEntry
	for rows.Next() {
		var entry reconcile.OverrideEntry
		var action string
		if err := rows.Scan(&entry.ID, &entry.SourceVideoID, &action, &entry.TargetVideoID); err != nil {
			return nil, err
		}
		entry.Action = reconcile.Action(action)
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (t *reconcileTx) ApplyOverride(ctx context.Context, entry reconcile.OverrideEntry) (bool, error) {
	var tag CommandTag
	var err error
	switch entry.Action {
	case reconcile.ActionLink:
		tag, err = t.tx.Exec(ctx,
			`UPDATE source_video SET video_id = $2, updated_at = now() WHERE id = $1`,
			entry.SourceVideoID, *entry.TargetVideoID)
	case reconcile.ActionUnlink:
		tag, err = t.tx.Exec(ctx,
			`UPDATE source_video SET video_id = NULL, updated_at = now() WHERE id = $1`,
			entry.SourceVideoID)
	case reconcile.ActionTeaser:
		tag, err = t.tx.Exec(ctx,
			`UPDATE source_video SET is_teaser = TRUE, updated_at = now() WHERE id = $1`,
			entry.SourceVideoID)
	case reconcile.ActionMain:
		tag, err = t.tx.Exec(ctx,
			`UPDATE source_video SET is_teaser = FALSE, updated_at = now() WHERE id = $1`,
			entry.SourceVideoID)
	case reconcile.ActionLock:
		tag, err = t.tx.Exec(ctx,
			`UPDATE source_video SET locked = TRUE, updated_at = now() WHERE id = $1`,
			entry.SourceVideoID)
	case reconcile.ActionUnlock:
		tag, err = t.tx.Exec(ctx,
			`UPDATE source_video SET locked = FALSE, updated_at = now() WHERE id = $1`,
			entry.SourceVideoID)
	default:
		return false, fmt.Errorf("unsupported override action %q", entry.Action)
	}
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (t *reconcileTx) DeleteOverride(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM reconcile_override WHERE id = $1`, id)
	return err
}

func (t *reconcileTx) ListEligibleSources(ctx context.Context, from, to *time.Time) ([]reconcile.Source, error) {
	query := `
		SELECT id, platform, platform_video_id, video_id,
		       COALESCE(title, ''), COALESCE(description, ''),
		       duration_seconds, published_at, is_teaser
		FROM source_video
		WHERE is_active AND NOT locked AND published_at IS NOT NULL`
	args := []any{}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND published_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND published_at <= $%d", len(args))
	}
	query += " ORDER BY published_at ASC, id ASC"

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reconcile.Source
	for rows.Next() {
		var src reconcile.Source
		if err := rows.Scan(
			&src.ID, &src.Platform, &src.PlatformVideoID, &src.VideoID,
			&src.Title, &src.Description,
			&src.DurationSeconds, &src.PublishedAt, &src.IsTeaser,
		); err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

func (t *reconcileTx) LockedVideoIDs(ctx context.Context) (map[int64]bool, error) {
	rows, err := t.tx.Query(ctx, `SELECT id FROM video WHERE is_locked`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (t *reconcileTx) CreateVideo(ctx context.Context, pick reconcile.CanonicalPick) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO video (title, description, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id`,
		pick.Title, pick.Description, pick.PublishedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (t *reconcileTx) LinkSource(ctx context.Context, sourceID, videoID int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE source_video
		SET video_id = $2, updated_at = now()
		WHERE id = $1`,
		sourceID, videoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("source %d not found", sourceID)
	}
	return nil
}
