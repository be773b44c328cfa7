package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrBusy is returned when another reconciliation run holds the advisory
// lock.
var ErrBusy = errors.New("reconciliation is already running")

const DefaultHoursWindow = 48

// Params carries one run's caller-resolved parameters; no ambient state is
// consulted.
type Params struct {
	From        *time.Time
	To          *time.Time
	HoursWindow int
	DryRun      bool
}

// Stats is the outcome of one reconciliation run. In dry-run mode
// AppliedOverrides counts the entries that would have been applied and the
// write counters stay zero.
type Stats struct {
	Clusters         int `json:"clusters"`
	CreatedVideos    int `json:"createdVideos"`
	LinkedSources    int `json:"linkedSources"`
	AppliedOverrides int `json:"appliedOverrides"`
	SkippedLocked    int `json:"skippedLocked"`
}

// Runner orchestrates one reconciliation pass: drain the override queue,
// load eligible sources, cluster them, then create or reuse canonical videos
// and relink cluster members. The whole pass runs in a single transaction so
// a failure leaves the store untouched.
type Runner struct {
	store  Store
	logger zerolog.Logger
}

func NewRunner(store Store, logger zerolog.Logger) *Runner {
	return &Runner{store: store, logger: logger}
}

func (r *Runner) Run(ctx context.Context, params Params) (Stats, error) {
	if r == nil || r.store == nil {
		return Stats{}, fmt.Errorf("runner is not initialized")
	}
	if params.HoursWindow <= 0 {
		params.HoursWindow = DefaultHoursWindow
	}
	if params.From != nil && params.To != nil && params.From.After(*params.To) {
		return Stats{}, fmt.Errorf("from must be <= to")
	}

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("begin reconciliation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if params.DryRun {
		stats, err := r.dryRun(ctx, tx, params)
		if err != nil {
			return Stats{}, err
		}
		// Roll back via the deferred call: a dry run commits nothing.
		return stats, nil
	}

	locked, err := tx.TryReconcileLock(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("acquire reconcile lock: %w", err)
	}
	if !locked {
		return Stats{}, ErrBusy
	}

	overrides, err := applyOverrides(ctx, tx, r.logger)
	if err != nil {
		return Stats{}, err
	}

	sources, err := tx.ListEligibleSources(ctx, params.From, params.To)
	if err != nil {
		return Stats{}, fmt.Errorf("list eligible sources: %w", err)
	}
	clusters := ClusterSources(sources, params.HoursWindow)

	lockedVideos, err := tx.LockedVideoIDs(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list locked videos: %w", err)
	}

	stats := Stats{
		Clusters:         len(clusters),
		AppliedOverrides: overrides.Applied,
	}

	for _, cluster := range clusters {
		videoID, reused := existingVideoID(cluster.Members)
		if !reused {
			pick := PickCanonical(cluster.Members)
			videoID, err = tx.CreateVideo(ctx, pick)
			if err != nil {
				return Stats{}, fmt.Errorf("create video for cluster %q: %w", cluster.NormTitle, err)
			}
			stats.CreatedVideos++
		}

		for _, member := range cluster.Members {
			if member.VideoID != nil && *member.VideoID == videoID {
				continue
			}
			if member.VideoID != nil && lockedVideos[*member.VideoID] {
				stats.SkippedLocked++
				continue
			}
			if err := tx.LinkSource(ctx, member.ID, videoID); err != nil {
				return Stats{}, fmt.Errorf("link source %d to video %d: %w", member.ID, videoID, err)
			}
			stats.LinkedSources++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Stats{}, fmt.Errorf("commit reconciliation: %w", err)
	}

	r.logger.Info().
		Int("clusters", stats.Clusters).
		Int("created_videos", stats.CreatedVideos).
		Int("linked_sources", stats.LinkedSources).
		Int("applied_overrides", stats.AppliedOverrides).
		Int("skipped_locked", stats.SkippedLocked).
		Msg("reconciliation run finished")

	return stats, nil
}

// dryRun reports what a run would do without mutating anything: the override
// queue stays intact and no videos or links are written.
func (r *Runner) dryRun(ctx context.Context, tx Tx, params Params) (Stats, error) {
	entries, err := tx.ListOverrides(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list overrides: %w", err)
	}

	sources, err := tx.ListEligibleSources(ctx, params.From, params.To)
	if err != nil {
		return Stats{}, fmt.Errorf("list eligible sources: %w", err)
	}
	clusters := ClusterSources(sources, params.HoursWindow)

	r.logger.Info().
		Int("clusters", len(clusters)).
		Int("pending_overrides", len(entries)).
		Msg("reconciliation dry run finished")

	return Stats{
		Clusters:         len(clusters),
		AppliedOverrides: len(entries),
	}, nil
}

func existingVideoID(members []Source) (int64, bool) {
	for _, m := range members {
		if m.VideoID != nil {
			return *m.VideoID, true
		}
	}
	return 0, false
}
