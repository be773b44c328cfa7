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
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	stats, err := db.NewVideoStore(pool).Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query stats: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	lastSnapshot := "-"
	if stats.LastSnapshotAt != nil {
		lastSnapshot = stats.LastSnapshotAt.UTC().Format(time.RFC3339)
	}
	headers := []string{"VIDEOS", "SOURCES", "LINKED", "ACTIVE", "SNAPSHOTS", "PENDING_OVERRIDES", "LAST_SNAPSHOT"}
	row := []string{
		strconv.FormatInt(stats.Videos, 10),
		strconv.FormatInt(stats.Sources, 10),
		strconv.FormatInt(stats.LinkedSources, 10),
		strconv.FormatInt(stats.ActiveSources, 10),
		strconv.FormatInt(stats.Snapshots, 10),
		strconv.FormatInt(stats.PendingOverrides, 10),
		lastSnapshot,
	}
	if err := writeTable(headers, [][]string{row}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	return 0
}
