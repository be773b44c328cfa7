package ingest

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateSourceItem_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"platform":"YOUTUBE",
		"platform_video_id":"yt-abc123",
		"platform_format":"VIDEO",
		"title":"Ep1",
		"description":"First episode",
		"url":"https://youtube.com/watch?v=abc123",
		"duration":"PT12M30S",
		"published_at":"2024-01-01T00:00:00Z",
		"is_active":true
	}`)

	item, err := ValidateSourceItem(payload)
	if err != nil {
		t.Fatalf("expected item to be valid, got error: %v", err)
	}
	if item.Platform != "YOUTUBE" {
		t.Fatalf("expected platform=YOUTUBE, got %q", item.Platform)
	}
	if item.Duration == nil || item.Duration.Seconds != 750 {
		t.Fatalf("expected duration of 750s, got %+v", item.Duration)
	}
}

func TestValidateSourceItem_NumericDuration(t *testing.T) {
	payload := json.RawMessage(`{
		"platform":"TIKTOK",
		"platform_video_id":"tt-1",
		"duration":42
	}`)

	item, err := ValidateSourceItem(payload)
	if err != nil {
		t.Fatalf("expected item to be valid, got error: %v", err)
	}
	if item.Duration == nil || item.Duration.Seconds != 42 {
		t.Fatalf("expected duration of 42s, got %+v", item.Duration)
	}
}

func TestValidateSourceItem_UnknownPlatform(t *testing.T) {
	payload := json.RawMessage(`{
		"platform":"VIMEO",
		"platform_video_id":"v-1"
	}`)

	if _, err := ValidateSourceItem(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown platform")
	}
}

func TestValidateSourceItem_MissingRequired(t *testing.T) {
	payload := json.RawMessage(`{"platform":"YOUTUBE"}`)

	if _, err := ValidateSourceItem(payload); err == nil {
		t.Fatalf("expected validation to fail for missing platform_video_id")
	}
}

func TestValidateSourceItem_BadPublishedAt(t *testing.T) {
	payload := json.RawMessage(`{
		"platform":"YOUTUBE",
		"platform_video_id":"yt-1",
		"published_at":"yesterday"
	}`)

	_, err := ValidateSourceItem(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for non-RFC3339 published_at")
	}
	if !strings.Contains(err.Error(), "RFC3339") {
		t.Fatalf("expected RFC3339 error, got: %v", err)
	}
}

func TestValidateSourceItem_UnknownField(t *testing.T) {
	payload := json.RawMessage(`{
		"platform":"YOUTUBE",
		"platform_video_id":"yt-1",
		"channel":"main"
	}`)

	if _, err := ValidateSourceItem(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown field")
	}
}

func TestValidateMetricItem_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"platform":"FACEBOOK",
		"platform_video_id":"fb-9",
		"snapshot_at":"2024-02-01T06:00:00Z",
		"views":1200,
		"reach":5000,
		"video_length":"PT3M",
		"reactions":{"total":80,"like":60,"love":20}
	}`)

	item, err := ValidateMetricItem(payload)
	if err != nil {
		t.Fatalf("expected item to be valid, got error: %v", err)
	}
	if item.Views == nil || *item.Views != 1200 {
		t.Fatalf("expected views=1200, got %+v", item.Views)
	}
	if item.VideoLength == nil || item.VideoLength.Seconds != 180 {
		t.Fatalf("expected video_length of 180s, got %+v", item.VideoLength)
	}
	if item.Reactions == nil || item.Reactions.Love == nil || *item.Reactions.Love != 20 {
		t.Fatalf("expected love=20, got %+v", item.Reactions)
	}
}

func TestValidateMetricItem_NegativeCount(t *testing.T) {
	payload := json.RawMessage(`{
		"platform":"FACEBOOK",
		"platform_video_id":"fb-9",
		"snapshot_at":"2024-02-01T06:00:00Z",
		"views":-5
	}`)

	if _, err := ValidateMetricItem(payload); err == nil {
		t.Fatalf("expected validation to fail for negative views")
	}
}

func TestValidateMetricItem_MissingSnapshotAt(t *testing.T) {
	payload := json.RawMessage(`{
		"platform":"FACEBOOK",
		"platform_video_id":"fb-9"
	}`)

	if _, err := ValidateMetricItem(payload); err == nil {
		t.Fatalf("expected validation to fail for missing snapshot_at")
	}
}
