package httpapi

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"crossview/internal/reconcile"
)

type reconcileRunRequest struct {
	From        string `json:"from"`
	To          string `json:"to"`
	HoursWindow int    `json:"hoursWindow"`
	DryRun      bool   `json:"dryRun"`
}

func (s *Server) handleReconcileRun(c echo.Context) error {
	var req reconcileRunRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	from, err := parseTimeFilter(req.From, false)
	if err != nil {
		return failValidation(c, map[string]string{"from": "must be RFC3339 or YYYY-MM-DD"})
	}
	to, err := parseTimeFilter(req.To, true)
	if err != nil {
		return failValidation(c, map[string]string{"to": "must be RFC3339 or YYYY-MM-DD"})
	}
	if from != nil && to != nil && from.After(*to) {
		return failValidation(c, map[string]string{"time_range": "from must be <= to"})
	}
	if req.HoursWindow < 0 {
		return failValidation(c, map[string]string{"hoursWindow": "must be positive"})
	}

	stats, err := s.runner.Run(c.Request().Context(), reconcile.Params{
		From:        from,
		To:          to,
		HoursWindow: req.HoursWindow,
		DryRun:      req.DryRun,
	})
	if err != nil {
		if errors.Is(err, reconcile.ErrBusy) {
			return failBusy(c, "A reconciliation run is already in progress")
		}
		s.logger.Error().Err(err).Msg("reconciliation run failed")
		return internalError(c, "Reconciliation run failed")
	}

	// A dry run writes nothing, so it reports no write counters.
	if req.DryRun {
		return success(c, map[string]any{
			"dryRun": true,
			"stats": map[string]any{
				"clusters":         stats.Clusters,
				"appliedOverrides": stats.AppliedOverrides,
			},
		})
	}
	return success(c, map[string]any{
		"dryRun": req.DryRun,
		"stats":  stats,
	})
}

type overrideItem struct {
	SourcePlatform   string `json:"source_platform"`
	SourcePlatformID string `json:"source_platform_id"`
	Action           string `json:"action"`
	TargetVideoID    *int64 `json:"target_video_id"`
}

type overridesApplyRequest struct {
	Items []overrideItem `json:"items"`
}

// handleOverridesApply enqueues manual corrections. The body is either a
// bare array of items or {"items": [...]}.
func (s *Server) handleOverridesApply(c echo.Context) error {
	var raw json.RawMessage
	if err := decodeJSONBody(c, &raw); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	var items []overrideItem
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &items); err != nil {
			return failValidation(c, map[string]string{"body": "invalid items array"})
		}
	} else {
		var req overridesApplyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return failValidation(c, map[string]string{"body": "invalid request object"})
		}
		items = req.Items
	}
	if len(items) == 0 {
		return failValidation(c, map[string]string{"items": "at least one item is required"})
	}

	created, unknown, invalid := 0, 0, 0
	for _, item := range items {
		action, err := reconcile.ParseAction(item.Action)
		if err != nil {
			invalid++
			continue
		}
		if action.RequiresTarget() && item.TargetVideoID == nil {
			invalid++
			continue
		}
		if strings.TrimSpace(item.SourcePlatform) == "" || strings.TrimSpace(item.SourcePlatformID) == "" {
			invalid++
			continue
		}

		sourceID, found, err := s.overrides.FindSourceID(c.Request().Context(), item.SourcePlatform, item.SourcePlatformID)
		if err != nil {
			s.logger.Error().Err(err).Msg("override source lookup failed")
			return internalError(c, "Failed to enqueue overrides")
		}
		if !found {
			unknown++
			continue
		}

		if err := s.overrides.Enqueue(c.Request().Context(), sourceID, string(action), item.TargetVideoID, "api"); err != nil {
			s.logger.Error().Err(err).Int64("source_id", sourceID).Msg("override enqueue failed")
			return internalError(c, "Failed to enqueue overrides")
		}
		created++
	}

	return success(c, map[string]any{
		"createdOverrides": created,
		"unknownSources":   unknown,
		"invalid":          invalid,
	})
}
