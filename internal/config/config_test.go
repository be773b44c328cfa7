package config

import "testing"

func TestIngestKeyring(t *testing.T) {
	t.Parallel()

	cfg := &Config{IngestAPIKeys: "batch:s3cret, web : other "}
	keys, err := cfg.IngestKeyring()
	if err != nil {
		t.Fatalf("parse keyring: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys["batch"] != "s3cret" {
		t.Fatalf("unexpected secret for batch: %q", keys["batch"])
	}
	if keys["web"] != "other" {
		t.Fatalf("unexpected secret for web: %q", keys["web"])
	}
}

func TestIngestKeyringRejectsMalformedEntry(t *testing.T) {
	t.Parallel()

	cfg := &Config{IngestAPIKeys: "nosecret"}
	if _, err := cfg.IngestKeyring(); err == nil {
		t.Fatalf("expected error for entry without secret")
	}

	cfg = &Config{IngestAPIKeys: "a:1,a:2"}
	if _, err := cfg.IngestKeyring(); err == nil {
		t.Fatalf("expected error for duplicate key id")
	}
}

func TestIngestKeyringEmpty(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	keys, err := cfg.IngestKeyring()
	if err != nil {
		t.Fatalf("parse empty keyring: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected empty keyring, got %d entries", len(keys))
	}
}
