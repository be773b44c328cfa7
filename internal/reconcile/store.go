package reconcile

import (
	"context"
	"time"
)

// Store opens transactions against the reconciliation tables.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is the transactional surface the runner and the override applier need.
// Rollback after Commit must be a no-op.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// TryReconcileLock attempts the transaction-scoped advisory lock that
	// keeps concurrent runs from creating duplicate canonical videos.
	TryReconcileLock(ctx context.Context) (bool, error)

	ListOverrides(ctx context.Context) ([]OverrideEntry, error)
	// ApplyOverride mutates the targeted source row and reports whether the
	// source still exists.
	ApplyOverride(ctx context.Context, entry OverrideEntry) (bool, error)
	DeleteOverride(ctx context.Context, id int64) error

	// ListEligibleSources returns active, unlocked sources with a publish
	// time inside [from, to], ordered by publish time then id ascending.
	ListEligibleSources(ctx context.Context, from, to *time.Time) ([]Source, error)
	LockedVideoIDs(ctx context.Context) (map[int64]bool, error)
	CreateVideo(ctx context.Context, pick CanonicalPick) (int64, error)
	// LinkSource points the source at videoID. The teaser flag is not
	// touched here: it is set at collection time or by an override.
	LinkSource(ctx context.Context, sourceID, videoID int64) error
}
