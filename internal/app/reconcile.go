package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"crossview/internal/cli"
	"crossview/internal/db"
	"crossview/internal/logging"
	"crossview/internal/reconcile"
)

func runReconcile(args []string) int {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	fromRaw := fs.String("from", "", "Only consider sources published at or after this time (RFC3339 or YYYY-MM-DD)")
	toRaw := fs.String("to", "", "Only consider sources published at or before this time (RFC3339 or YYYY-MM-DD)")
	hoursWindow := fs.Int("hours-window", 0, "Publish-time window in hours for clustering (0 uses the configured default)")
	dryRun := fs.Bool("dry-run", false, "Report what a pass would do without writing")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reconcile does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}
	from, err := parseTimeArg(*fromRaw, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --from: %v\n", err)
		return 2
	}
	to, err := parseTimeArg(*toRaw, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --to: %v\n", err)
		return 2
	}
	if *hoursWindow < 0 {
		fmt.Fprintln(os.Stderr, "--hours-window must be >= 0")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	window := *hoursWindow
	if window == 0 {
		window = cfg.ReconcileHoursWindow
	}

	runner := reconcile.NewRunner(db.NewReconcileStore(pool), logger)
	stats, err := runner.Run(ctx, reconcile.Params{
		From:        from,
		To:          to,
		HoursWindow: window,
		DryRun:      *dryRun,
	})
	if err != nil {
		if errors.Is(err, reconcile.ErrBusy) {
			fmt.Fprintln(os.Stderr, "Another reconciliation pass is already running")
			return 1
		}
		fmt.Fprintf(os.Stderr, "Reconciliation failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	headers := []string{"CLUSTERS", "CREATED", "LINKED", "OVERRIDES", "SKIPPED_LOCKED"}
	row := []string{
		strconv.Itoa(stats.Clusters),
		strconv.Itoa(stats.CreatedVideos),
		strconv.Itoa(stats.LinkedSources),
		strconv.Itoa(stats.AppliedOverrides),
		strconv.Itoa(stats.SkippedLocked),
	}
	if err := writeTable(headers, [][]string{row}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	return 0
}
