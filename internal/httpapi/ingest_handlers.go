package httpapi

import (
	"encoding/json"

	"github.com/labstack/echo/v4"
)

type sourcesBatchRequest struct {
	Sources []json.RawMessage `json:"sources"`
}

func (s *Server) handleSourcesBatchUpsert(c echo.Context) error {
	var req sourcesBatchRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if len(req.Sources) == 0 {
		return failValidation(c, map[string]string{"sources": "at least one source is required"})
	}

	result, err := s.ingestSvc.BatchUpsertSources(c.Request().Context(), req.Sources)
	if err != nil {
		s.logger.Error().Err(err).Msg("sources batch upsert failed")
		return internalError(c, "Failed to upsert sources")
	}
	return success(c, result)
}

type filterMissingRequest struct {
	Platform string   `json:"platform"`
	IDs      []string `json:"ids"`
}

func (s *Server) handleSourcesFilterMissing(c echo.Context) error {
	var req filterMissingRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if req.Platform == "" {
		return failValidation(c, map[string]string{"platform": "is required"})
	}

	missing, err := s.ingestSvc.FilterMissing(c.Request().Context(), req.Platform, req.IDs)
	if err != nil {
		return failValidation(c, map[string]string{"platform": err.Error()})
	}
	return success(c, map[string]any{
		"missing": missing,
	})
}

type metricsBatchRequest struct {
	Snapshots []json.RawMessage `json:"snapshots"`
}

func (s *Server) handleMetricsBatchUpsert(c echo.Context) error {
	var req metricsBatchRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if len(req.Snapshots) == 0 {
		return failValidation(c, map[string]string{"snapshots": "at least one snapshot is required"})
	}

	result, err := s.ingestSvc.BatchUpsertMetrics(c.Request().Context(), req.Snapshots)
	if err != nil {
		s.logger.Error().Err(err).Msg("metrics batch upsert failed")
		return internalError(c, "Failed to upsert metrics")
	}
	return success(c, result)
}
