package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crossview/internal/cli"
	"crossview/internal/config"
	"crossview/internal/db"
	"crossview/internal/duplicates"
	"crossview/internal/httpapi"
	"crossview/internal/ingest"
	"crossview/internal/logging"
	"crossview/internal/reconcile"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8080, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ingestKeys, err := cfg.IngestKeyring()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid ingest keyring: %v\n", err)
		return 1
	}
	if len(ingestKeys) == 0 {
		logger.Warn().Msg("INGEST_API_KEYS is empty; ingest endpoints will reject all requests")
	}
	if cfg.AdminTokenHash == "" {
		logger.Warn().Msg("ADMIN_TOKEN_HASH is empty; admin endpoints are disabled")
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	duplicateStore := db.NewDuplicateStore(pool)
	srv := httpapi.NewServer(
		reconcile.NewRunner(db.NewReconcileStore(pool), logger),
		duplicates.NewFinder(duplicateStore),
		duplicates.NewResolver(duplicateStore, logger),
		ingest.NewService(db.NewIngestStore(pool), logger),
		db.NewVideoStore(pool),
		db.NewOverrideStore(pool),
		db.NewIdempotencyStore(pool),
		logger,
		httpapi.Options{
			Host:              *host,
			Port:              *port,
			ReadTimeout:       *readTimeout,
			WriteTimeout:      *writeTimeout,
			ShutdownTimeout:   *shutdownTimeout,
			IngestKeys:        ingestKeys,
			SignatureSkewSecs: int64(cfg.SignatureSkewSecs),
			AdminTokenHash:    cfg.AdminTokenHash,
		},
	)

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
