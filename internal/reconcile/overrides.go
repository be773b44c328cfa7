package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// OverrideResult summarizes one drain of the override queue.
type OverrideResult struct {
	Applied int
	Missing int
	Invalid int
}

// applyOverrides drains the whole override queue inside tx. Every consumed
// entry is deleted, whether or not its source still exists; a missing source
// or an unparseable action is counted, never fatal for the batch.
func applyOverrides(ctx context.Context, tx Tx, logger zerolog.Logger) (OverrideResult, error) {
	entries, err := tx.ListOverrides(ctx)
	if err != nil {
		return OverrideResult{}, fmt.Errorf("list overrides: %w", err)
	}

	var result OverrideResult
	for _, entry := range entries {
		if action, parseErr := ParseAction(string(entry.Action)); parseErr != nil {
			logger.Warn().
				Int64("override_id", entry.ID).
				Str("action", string(entry.Action)).
				Msg("dropping override with unknown action")
			result.Invalid++
		} else if action.RequiresTarget() && entry.TargetVideoID == nil {
			logger.Warn().
				Int64("override_id", entry.ID).
				Msg("dropping LINK override without target video")
			result.Invalid++
		} else {
			entry.Action = action
			found, applyErr := tx.ApplyOverride(ctx, entry)
			if applyErr != nil {
				return OverrideResult{}, fmt.Errorf("apply override %d: %w", entry.ID, applyErr)
			}
			if found {
				result.Applied++
			} else {
				result.Missing++
			}
		}

		if err := tx.DeleteOverride(ctx, entry.ID); err != nil {
			return OverrideResult{}, fmt.Errorf("delete override %d: %w", entry.ID, err)
		}
	}

	return result, nil
}
