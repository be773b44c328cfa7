package app

import (
	"testing"
	"time"
)

func TestParseTimeArg(t *testing.T) {
	t.Parallel()

	got, err := parseTimeArg("2024-03-01", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got, err = parseTimeArg("2024-03-01", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.After(want) || got.Day() != 1 {
		t.Fatalf("end-of-day bound should stay within the day, got %v", got)
	}

	got, err = parseTimeArg("2024-03-01T12:30:00Z", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour() != 12 || got.Minute() != 30 {
		t.Fatalf("unexpected parsed time %v", got)
	}

	got, err = parseTimeArg("   ", false)
	if err != nil || got != nil {
		t.Fatalf("blank input should yield nil, got %v / %v", got, err)
	}

	if _, err := parseTimeArg("yesterday", false); err == nil {
		t.Fatalf("expected error for malformed input")
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"table", "JSON", " json "} {
		if _, err := parseOutputFormat(raw, outputFormatTable); err != nil {
			t.Fatalf("expected %q to be accepted: %v", raw, err)
		}
	}

	format, err := parseOutputFormat("", outputFormatJSON)
	if err != nil || format != outputFormatJSON {
		t.Fatalf("expected default to apply, got %q / %v", format, err)
	}

	if _, err := parseOutputFormat("yaml", outputFormatTable); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if code := Run([]string{"frobnicate"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if code := Run(nil); code != 2 {
		t.Fatalf("expected exit code 2 for empty args, got %d", code)
	}
	if code := Run([]string{"help"}); code != 0 {
		t.Fatalf("expected exit code 0 for help, got %d", code)
	}
}
