package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

type fakeStore struct {
	sources   map[string]SourceRow
	snapshots []SnapshotRow
	nextID    int64
	sourceIDs map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sources:   map[string]SourceRow{},
		sourceIDs: map[string]int64{},
	}
}

func key(platform, id string) string { return platform + "/" + id }

func (s *fakeStore) UpsertSource(_ context.Context, row SourceRow) (bool, error) {
	k := key(row.Platform, row.PlatformVideoID)
	_, exists := s.sources[k]
	s.sources[k] = row
	return !exists, nil
}

func (s *fakeStore) ExistingPlatformIDs(_ context.Context, platform string, ids []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, id := range ids {
		if _, ok := s.sources[key(platform, id)]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (s *fakeStore) EnsureSource(_ context.Context, platform, platformVideoID string) (int64, error) {
	k := key(platform, platformVideoID)
	if id, ok := s.sourceIDs[k]; ok {
		return id, nil
	}
	s.nextID++
	s.sourceIDs[k] = s.nextID
	s.sources[k] = SourceRow{Platform: platform, PlatformVideoID: platformVideoID}
	return s.nextID, nil
}

func (s *fakeStore) UpsertSnapshot(_ context.Context, row SnapshotRow) error {
	s.snapshots = append(s.snapshots, row)
	return nil
}

func testService(store *fakeStore) *Service {
	return NewService(store, zerolog.Nop())
}

func TestBatchUpsertSourcesCountsInsertAndUpdate(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := testService(store)

	items := []json.RawMessage{
		json.RawMessage(`{"platform":"YOUTUBE","platform_video_id":"a"}`),
		json.RawMessage(`{"platform":"YOUTUBE","platform_video_id":"b"}`),
	}
	result, err := svc.BatchUpsertSources(context.Background(), items)
	if err != nil {
		t.Fatalf("batch upsert: %v", err)
	}
	if result.Inserted != 2 || result.Updated != 0 {
		t.Fatalf("unexpected first batch result: %+v", result)
	}

	result, err = svc.BatchUpsertSources(context.Background(), items[:1])
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if result.Inserted != 0 || result.Updated != 1 {
		t.Fatalf("unexpected second batch result: %+v", result)
	}
}

func TestBatchUpsertSourcesGuessesTeaserAtCollection(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := testService(store)

	items := []json.RawMessage{
		json.RawMessage(`{"platform":"YOUTUBE","platform_video_id":"a","title":"Ep1 teaser"}`),
		json.RawMessage(`{"platform":"YOUTUBE","platform_video_id":"b","title":"Ep1","duration":30}`),
		json.RawMessage(`{"platform":"YOUTUBE","platform_video_id":"c","title":"Ep1 teaser","is_teaser":false}`),
		json.RawMessage(`{"platform":"YOUTUBE","platform_video_id":"d","title":"Ep1","duration":"PT10M"}`),
	}
	if _, err := svc.BatchUpsertSources(context.Background(), items); err != nil {
		t.Fatalf("batch upsert: %v", err)
	}

	if row := store.sources[key("YOUTUBE", "a")]; !row.TeaserGuess || row.IsTeaser != nil {
		t.Fatalf("keyword title should set the guess only, got %+v", row)
	}
	if row := store.sources[key("YOUTUBE", "b")]; !row.TeaserGuess {
		t.Fatalf("short duration should set the guess, got %+v", row)
	}
	// An explicit flag travels alongside the guess and wins in the store.
	if row := store.sources[key("YOUTUBE", "c")]; row.IsTeaser == nil || *row.IsTeaser {
		t.Fatalf("explicit is_teaser must be preserved, got %+v", row)
	}
	if row := store.sources[key("YOUTUBE", "d")]; row.TeaserGuess {
		t.Fatalf("plain full-length item must not be guessed, got %+v", row)
	}
}

func TestBatchUpsertSourcesSkipsInvalidItems(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	items := []json.RawMessage{
		json.RawMessage(`{"platform":"YOUTUBE","platform_video_id":"a"}`),
		json.RawMessage(`{"platform":"VIMEO","platform_video_id":"x"}`),
		json.RawMessage(`not even json`),
	}

	result, err := testService(store).BatchUpsertSources(context.Background(), items)
	if err != nil {
		t.Fatalf("batch upsert: %v", err)
	}
	if result.Inserted != 1 || result.Skipped != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected two item errors, got %d", len(result.Errors))
	}
	if result.Errors[0].Index != 1 || result.Errors[1].Index != 2 {
		t.Fatalf("unexpected error indexes: %+v", result.Errors)
	}
}

func TestFilterMissing(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.sources[key("YOUTUBE", "a")] = SourceRow{Platform: "YOUTUBE", PlatformVideoID: "a"}

	missing, err := testService(store).FilterMissing(context.Background(), "youtube", []string{"a", "b", " c ", "b", ""})
	if err != nil {
		t.Fatalf("filter missing: %v", err)
	}
	if len(missing) != 2 || missing[0] != "b" || missing[1] != "c" {
		t.Fatalf("unexpected missing ids: %v", missing)
	}
}

func TestFilterMissingUnknownPlatform(t *testing.T) {
	t.Parallel()

	if _, err := testService(newFakeStore()).FilterMissing(context.Background(), "VIMEO", []string{"a"}); err == nil {
		t.Fatalf("expected error for unknown platform")
	}
}

func TestBatchUpsertMetricsCreatesMinimalSource(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	items := []json.RawMessage{
		json.RawMessage(`{"platform":"TIKTOK","platform_video_id":"tt-1","snapshot_at":"2024-02-01T06:00:00Z","views":10}`),
	}

	result, err := testService(store).BatchUpsertMetrics(context.Background(), items)
	if err != nil {
		t.Fatalf("batch upsert metrics: %v", err)
	}
	if result.Accepted != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, ok := store.sources[key("TIKTOK", "tt-1")]; !ok {
		t.Fatalf("expected a minimal source to be created")
	}
	if len(store.snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(store.snapshots))
	}
	snap := store.snapshots[0]
	if snap.ViewsNative == nil || *snap.ViewsNative != 10 {
		t.Fatalf("unexpected snapshot views: %+v", snap.ViewsNative)
	}
	if snap.SnapshotAt.IsZero() {
		t.Fatalf("expected snapshot_at to be parsed")
	}
}

func TestBatchUpsertMetricsSkipsInvalidItems(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	items := []json.RawMessage{
		json.RawMessage(`{"platform":"TIKTOK","platform_video_id":"tt-1","snapshot_at":"not a time"}`),
		json.RawMessage(`{"platform":"TIKTOK","platform_video_id":"tt-2","snapshot_at":"2024-02-01T06:00:00Z"}`),
	}

	result, err := testService(store).BatchUpsertMetrics(context.Background(), items)
	if err != nil {
		t.Fatalf("batch upsert metrics: %v", err)
	}
	if result.Accepted != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
