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
	"crossview/internal/duplicates"
)

func runDuplicates(args []string) int {
	fs := flag.NewFlagSet("duplicates", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	windowHours := fs.Int("window-h", 0, "Publish-time window in hours (0 uses the configured default)")
	durationTol := fs.Int("duration-tol-s", 0, "Duration tolerance in seconds (0 uses the configured default)")
	limit := fs.Int("limit", duplicates.DefaultLimit, "Maximum pairs to return")
	offset := fs.Int("offset", 0, "Pairs to skip before returning results")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "duplicates does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}
	if *windowHours < 0 || *durationTol < 0 || *limit < 0 || *offset < 0 {
		fmt.Fprintln(os.Stderr, "flags must be >= 0")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	window := *windowHours
	if window == 0 {
		window = cfg.DuplicateWindowHours
	}
	tol := *durationTol
	if tol == 0 {
		tol = cfg.DuplicateDurationTolS
	}

	finder := duplicates.NewFinder(db.NewDuplicateStore(pool))
	result, err := finder.Find(ctx, duplicates.Params{
		WindowHours:  window,
		DurationTolS: tol,
		Limit:        *limit,
		Offset:       *offset,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Duplicate search failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	headers := []string{"DELTA_H", "SOURCE1", "PLATFORM1", "SOURCE2", "PLATFORM2", "TITLE"}
	rows := make([][]string, 0, len(result.Items))
	for _, item := range result.Items {
		title := ""
		if item.Source1.Title != nil {
			title = *item.Source1.Title
		}
		rows = append(rows, []string{
			strconv.FormatFloat(item.DeltaHours, 'f', 1, 64),
			strconv.FormatInt(item.Source1.ID, 10),
			item.Source1.Platform,
			strconv.FormatInt(item.Source2.ID, 10),
			item.Source2.Platform,
			title,
		})
	}
	if err := writeTable(headers, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	fmt.Printf("%d pair(s)\n", result.Count)
	return 0
}
