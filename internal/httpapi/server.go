package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"crossview/internal/db"
	"crossview/internal/duplicates"
	"crossview/internal/ingest"
	"crossview/internal/reconcile"
	"crossview/internal/timeseries"
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// IngestKeys maps key ids to shared secrets for signature verification.
	IngestKeys map[string]string
	// SignatureSkewSecs bounds the accepted clock drift of signed requests.
	SignatureSkewSecs int64
	// AdminTokenHash is the bcrypt hash admin requests must match.
	AdminTokenHash string
}

// ReconcileRunner triggers one reconciliation pass.
type ReconcileRunner interface {
	Run(ctx context.Context, params reconcile.Params) (reconcile.Stats, error)
}

// DuplicateFinder lists suspected duplicate source pairs.
type DuplicateFinder interface {
	Find(ctx context.Context, params duplicates.Params) (duplicates.FindResult, error)
}

// DuplicateResolver performs one confirmed merge.
type DuplicateResolver interface {
	Resolve(ctx context.Context, keepVideoID, deleteVideoID, sourceID int64) (duplicates.MergeResult, error)
}

// IngestService validates and persists collector batches.
type IngestService interface {
	BatchUpsertSources(ctx context.Context, items []json.RawMessage) (ingest.SourceBatchResult, error)
	FilterMissing(ctx context.Context, platform string, ids []string) ([]string, error)
	BatchUpsertMetrics(ctx context.Context, items []json.RawMessage) (ingest.MetricBatchResult, error)
}

// VideoReader serves the read side of the API.
type VideoReader interface {
	ListVideos(ctx context.Context, params db.ListVideosParams) (int, []db.VideoListItem, error)
	ResolveVideoID(ctx context.Context, slug, platform, platformVideoID string) (int64, error)
	GetVideoDetail(ctx context.Context, id int64) (*db.VideoDetail, error)
	MetricSeriesByPlatform(ctx context.Context, videoID int64, metric, interval string, from time.Time, platforms []string) (map[string][]timeseries.Point, error)
	Stats(ctx context.Context) (db.EngineStats, error)
}

// OverrideQueue enqueues manual corrections.
type OverrideQueue interface {
	FindSourceID(ctx context.Context, platform, platformVideoID string) (int64, bool, error)
	Enqueue(ctx context.Context, sourceID int64, action string, targetVideoID *int64, createdBy string) error
}

// IdempotencyCache replays previously served ingest responses.
type IdempotencyCache interface {
	Lookup(ctx context.Context, key string) (*db.StoredResponse, error)
	Save(ctx context.Context, key, route, requestHash string, code int, body string) error
}

type Server struct {
	runner    ReconcileRunner
	finder    DuplicateFinder
	resolver  DuplicateResolver
	ingestSvc IngestService
	videos    VideoReader
	overrides OverrideQueue
	idem      IdempotencyCache
	logger    zerolog.Logger
	opts      Options
}

func NewServer(
	runner ReconcileRunner,
	finder DuplicateFinder,
	resolver DuplicateResolver,
	ingestSvc IngestService,
	videos VideoReader,
	overrides OverrideQueue,
	idem IdempotencyCache,
	logger zerolog.Logger,
	opts Options,
) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	skew := opts.SignatureSkewSecs
	if skew <= 0 {
		skew = 300
	}

	return &Server{
		runner:    runner,
		finder:    finder,
		resolver:  resolver,
		ingestSvc: ingestSvc,
		videos:    videos,
		overrides: overrides,
		idem:      idem,
		logger:    logger,
		opts: Options{
			Host:              host,
			Port:              port,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			ShutdownTimeout:   shutdownTimeout,
			IngestKeys:        opts.IngestKeys,
			SignatureSkewSecs: skew,
			AdminTokenHash:    opts.AdminTokenHash,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.runner == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("crossview api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("crossview api server stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", HeaderAdminToken, HeaderIdempotencyKey},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.GET("/videos", s.handleVideoList)
	api.GET("/videos/duplicates", s.handleDuplicates, s.requireAdmin())
	api.GET("/videos/:id", s.handleVideoDetail)
	api.GET("/videos/:id/timeseries", s.handleVideoTimeseries)

	admin := api.Group("", s.requireAdmin())
	admin.POST("/reconcile/run", s.handleReconcileRun)
	admin.POST("/overrides/apply", s.handleOverridesApply)
	admin.POST("/duplicates/resolve", s.handleDuplicatesResolve)

	collect := api.Group("", s.requireSignature(), s.withIdempotency())
	collect.POST("/sources/batch-upsert", s.handleSourcesBatchUpsert)
	collect.POST("/sources/filter-missing", s.handleSourcesFilterMissing)
	collect.POST("/metrics/batch-upsert", s.handleMetricsBatchUpsert)

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func decodeJSONBody(c echo.Context, dst any) error {
	decoder := json.NewDecoder(c.Request().Body)
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func parseTimeFilter(raw string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	if ts, err := time.Parse(time.RFC3339, trimmed); err == nil {
		utc := ts.UTC()
		return &utc, nil
	}

	if day, err := time.Parse("2006-01-02", trimmed); err == nil {
		utc := day.UTC()
		if endOfDay {
			utc = utc.Add((24 * time.Hour) - time.Nanosecond)
		}
		return &utc, nil
	}

	return nil, fmt.Errorf("invalid time format")
}
