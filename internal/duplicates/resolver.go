package duplicates

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// ValidationError rejects a merge before or instead of mutating anything.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// MergeResult reports one confirmed merge.
type MergeResult struct {
	Kept          int64 `json:"kept"`
	Deleted       int64 `json:"deleted"`
	UpdatedSource int64 `json:"updated_source"`
}

// MergeStore opens transactions for the resolver.
type MergeStore interface {
	Begin(ctx context.Context) (MergeTx, error)
}

// MergeTx is the transactional surface of one merge. Rollback after Commit
// must be a no-op.
type MergeTx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	VideoExists(ctx context.Context, id int64) (bool, error)
	// RelinkSource points the source at videoID and reports whether the
	// source row exists.
	RelinkSource(ctx context.Context, sourceID, videoID int64) (bool, error)
	CountSourcesForVideo(ctx context.Context, videoID int64) (int, error)
	// DeleteVideo removes the video row and reports whether it existed.
	DeleteVideo(ctx context.Context, id int64) (bool, error)
}

// Resolver performs the confirmed half of duplicate review: relink one
// source onto the video to keep, then delete the redundant video. The delete
// is refused while any source still references it, so a half-merged pair
// never loses a video row.
type Resolver struct {
	store  MergeStore
	logger zerolog.Logger
}

func NewResolver(store MergeStore, logger zerolog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, keepVideoID, deleteVideoID, sourceID int64) (MergeResult, error) {
	if keepVideoID <= 0 || deleteVideoID <= 0 || sourceID <= 0 {
		return MergeResult{}, validationErrorf("videoIdToKeep, videoIdToDelete and videoSourceIdToUpdate are all required")
	}
	if keepVideoID == deleteVideoID {
		return MergeResult{}, validationErrorf("videoIdToKeep and videoIdToDelete must differ")
	}

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return MergeResult{}, fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	keepExists, err := tx.VideoExists(ctx, keepVideoID)
	if err != nil {
		return MergeResult{}, fmt.Errorf("check video %d: %w", keepVideoID, err)
	}
	if !keepExists {
		return MergeResult{}, validationErrorf("video %d to keep does not exist", keepVideoID)
	}

	relinked, err := tx.RelinkSource(ctx, sourceID, keepVideoID)
	if err != nil {
		return MergeResult{}, fmt.Errorf("relink source %d: %w", sourceID, err)
	}
	if !relinked {
		return MergeResult{}, validationErrorf("source %d does not exist", sourceID)
	}

	remaining, err := tx.CountSourcesForVideo(ctx, deleteVideoID)
	if err != nil {
		return MergeResult{}, fmt.Errorf("count sources of video %d: %w", deleteVideoID, err)
	}
	if remaining > 0 {
		return MergeResult{}, validationErrorf("video %d still has %d linked source(s); relink them first", deleteVideoID, remaining)
	}

	deleted, err := tx.DeleteVideo(ctx, deleteVideoID)
	if err != nil {
		return MergeResult{}, fmt.Errorf("delete video %d: %w", deleteVideoID, err)
	}
	if !deleted {
		return MergeResult{}, validationErrorf("video %d to delete does not exist", deleteVideoID)
	}

	if err := tx.Commit(ctx); err != nil {
		return MergeResult{}, fmt.Errorf("commit merge: %w", err)
	}

	r.logger.Info().
		Int64("kept_video", keepVideoID).
		Int64("deleted_video", deleteVideoID).
		Int64("updated_source", sourceID).
		Msg("duplicate pair merged")

	return MergeResult{
		Kept:          keepVideoID,
		Deleted:       deleteVideoID,
		UpdatedSource: sourceID,
	}, nil
}
