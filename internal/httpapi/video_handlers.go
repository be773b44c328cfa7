package httpapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"crossview/internal/db"
	"crossview/internal/duplicates"
	"crossview/internal/globaltime"
	"crossview/internal/timeseries"
)

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "crossview",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.videos.Stats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleVideoList(c echo.Context) error {
	page, err := parsePositiveInt(c.QueryParam("page"), 1, 1, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"page": err.Error()})
	}
	size, err := parsePositiveInt(c.QueryParam("size"), 20, 1, 200)
	if err != nil {
		return failValidation(c, map[string]string{"size": err.Error()})
	}
	from, err := parseTimeFilter(c.QueryParam("from"), false)
	if err != nil {
		return failValidation(c, map[string]string{"from": "must be RFC3339 or YYYY-MM-DD"})
	}
	to, err := parseTimeFilter(c.QueryParam("to"), true)
	if err != nil {
		return failValidation(c, map[string]string{"to": "must be RFC3339 or YYYY-MM-DD"})
	}

	total, items, err := s.videos.ListVideos(c.Request().Context(), db.ListVideosParams{
		Page:     page,
		Size:     size,
		Query:    c.QueryParam("q"),
		Platform: c.QueryParam("platform"),
		Format:   c.QueryParam("format"),
		From:     from,
		To:       to,
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("query videos failed")
		return internalError(c, "Failed to load videos")
	}

	return success(c, map[string]any{
		"page":  page,
		"size":  size,
		"total": total,
		"items": items,
	})
}

// handleVideoDetail resolves a video by numeric id, by slug, or by platform
// coordinates given as query params.
func (s *Server) handleVideoDetail(c echo.Context) error {
	raw := strings.TrimSpace(c.Param("id"))

	var id int64
	if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
		id = parsed
	} else {
		resolved, err := s.videos.ResolveVideoID(
			c.Request().Context(),
			raw,
			c.QueryParam("platform"),
			c.QueryParam("platform_video_id"),
		)
		if err != nil {
			s.logger.Error().Err(err).Str("id", raw).Msg("video lookup failed")
			return internalError(c, "Failed to resolve video")
		}
		id = resolved
	}
	if id <= 0 {
		return failNotFound(c, "Video not found")
	}

	detail, err := s.videos.GetVideoDetail(c.Request().Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Int64("video_id", id).Msg("query video detail failed")
		return internalError(c, "Failed to load video")
	}
	if detail == nil {
		return failNotFound(c, "Video not found")
	}
	return success(c, detail)
}

func (s *Server) handleVideoTimeseries(c echo.Context) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		return failValidation(c, map[string]string{"id": "must be a positive integer"})
	}

	metric := timeseries.PickMetric(c.QueryParam("metric"))
	interval := timeseries.PickInterval(c.QueryParam("interval"))
	agg := timeseries.PickAgg(c.QueryParam("agg"))
	lookback := timeseries.ParseRange(c.QueryParam("range"))
	platforms := timeseries.SanitizePlatforms(c.QueryParam("platforms"))
	limit, err := parsePositiveInt(c.QueryParam("limit"), 0, 0, 10_000)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	now := globaltime.UTC()
	from := now.Add(-lookback)

	byPlatform, err := s.videos.MetricSeriesByPlatform(c.Request().Context(), id, metric, interval, from, platforms)
	if err != nil {
		s.logger.Error().Err(err).Int64("video_id", id).Msg("query metric series failed")
		return internalError(c, "Failed to load timeseries")
	}

	timeseries.WarnNonMonotonic(s.logger, byPlatform)

	global := timeseries.SumPlatforms(byPlatform)
	if agg == timeseries.AggCumsum {
		global = timeseries.Cumsum(global)
		for platform, points := range byPlatform {
			byPlatform[platform] = timeseries.Cumsum(points)
		}
	}
	if limit > 0 {
		global = timeseries.Downsample(global, limit)
		for platform, points := range byPlatform {
			byPlatform[platform] = timeseries.Downsample(points, limit)
		}
	}

	series := map[string]any{"views": global}
	for platform, points := range byPlatform {
		series[platform] = points
	}

	return success(c, map[string]any{
		"timeseries":  series,
		"granularity": interval,
		"metric":      metric,
		"from":        from,
		"to":          now,
	})
}

func (s *Server) handleDuplicates(c echo.Context) error {
	windowHours, err := parsePositiveInt(c.QueryParam("window_h"), duplicates.DefaultWindowHours, 1, 24*365)
	if err != nil {
		return failValidation(c, map[string]string{"window_h": err.Error()})
	}
	durationTol, err := parsePositiveInt(c.QueryParam("duration_tol_s"), duplicates.DefaultDurationTolS, 1, 86_400)
	if err != nil {
		return failValidation(c, map[string]string{"duration_tol_s": err.Error()})
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), duplicates.DefaultLimit, 1, 1000)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}
	offset, err := parsePositiveInt(c.QueryParam("offset"), 0, 0, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"offset": err.Error()})
	}

	result, err := s.finder.Find(c.Request().Context(), duplicates.Params{
		WindowHours:  windowHours,
		DurationTolS: durationTol,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("duplicate scan failed")
		return internalError(c, "Failed to scan for duplicates")
	}
	return success(c, result)
}

type resolveRequest struct {
	VideoIDToKeep         int64 `json:"videoIdToKeep"`
	VideoIDToDelete       int64 `json:"videoIdToDelete"`
	VideoSourceIDToUpdate int64 `json:"videoSourceIdToUpdate"`
}

func (s *Server) handleDuplicatesResolve(c echo.Context) error {
	var req resolveRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	result, err := s.resolver.Resolve(c.Request().Context(), req.VideoIDToKeep, req.VideoIDToDelete, req.VideoSourceIDToUpdate)
	if err != nil {
		var verr *duplicates.ValidationError
		if errors.As(err, &verr) {
			return failValidation(c, map[string]string{"merge": verr.Reason})
		}
		s.logger.Error().Err(err).Msg("duplicate merge failed")
		return internalError(c, "Failed to resolve duplicate")
	}
	return success(c, result)
}
