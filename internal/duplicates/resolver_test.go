package duplicates

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type fakeMergeStore struct {
	videos      map[int64]bool
	sourceVideo map[int64]*int64

	commits   int
	rollbacks int
}

func newFakeMergeStore() *fakeMergeStore {
	return &fakeMergeStore{
		videos:      map[int64]bool{},
		sourceVideo: map[int64]*int64{},
	}
}

func (s *fakeMergeStore) Begin(_ context.Context) (MergeTx, error) {
	return &fakeMergeTx{store: s}, nil
}

type fakeMergeTx struct {
	store     *fakeMergeStore
	committed bool
}

func (t *fakeMergeTx) Commit(_ context.Context) error {
	t.committed = true
	t.store.commits++
	return nil
}

func (t *fakeMergeTx) Rollback(_ context.Context) error {
	if !t.committed {
		t.store.rollbacks++
	}
	return nil
}

func (t *fakeMergeTx) VideoExists(_ context.Context, id int64) (bool, error) {
	return t.store.videos[id], nil
}

func (t *fakeMergeTx) RelinkSource(_ context.Context, sourceID, videoID int64) (bool, error) {
	if _, ok := t.store.sourceVideo[sourceID]; !ok {
		return false, nil
	}
	id := videoID
	t.store.sourceVideo[sourceID] = &id
	return true, nil
}

func (t *fakeMergeTx) CountSourcesForVideo(_ context.Context, videoID int64) (int, error) {
	n := 0
	for _, v := range t.store.sourceVideo {
		if v != nil && *v == videoID {
			n++
		}
	}
	return n, nil
}

func (t *fakeMergeTx) DeleteVideo(_ context.Context, id int64) (bool, error) {
	if !t.store.videos[id] {
		return false, nil
	}
	delete(t.store.videos, id)
	return true, nil
}

func testResolver(store *fakeMergeStore) *Resolver {
	return NewResolver(store, zerolog.Nop())
}

func TestResolveMergesPair(t *testing.T) {
	t.Parallel()

	store := newFakeMergeStore()
	store.videos[1] = true
	store.videos[2] = true
	two := int64(2)
	store.sourceVideo[9] = &two

	result, err := testResolver(store).Resolve(context.Background(), 1, 2, 9)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Kept != 1 || result.Deleted != 2 || result.UpdatedSource != 9 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := store.sourceVideo[9]; got == nil || *got != 1 {
		t.Fatalf("expected source 9 on video 1, got %v", got)
	}
	if store.videos[2] {
		t.Fatalf("expected video 2 to be deleted")
	}
	if store.commits != 1 {
		t.Fatalf("expected one commit, got %d", store.commits)
	}
}

func TestResolveRefusesWhileReferencesRemain(t *testing.T) {
	t.Parallel()

	store := newFakeMergeStore()
	store.videos[1] = true
	store.videos[2] = true
	two := int64(2)
	store.sourceVideo[9] = &two
	alsoTwo := int64(2)
	store.sourceVideo[10] = &alsoTwo

	_, err := testResolver(store).Resolve(context.Background(), 1, 2, 9)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !store.videos[2] {
		t.Fatalf("video 2 must survive a refused merge")
	}
	if store.commits != 0 {
		t.Fatalf("refused merge must not commit")
	}
	if store.rollbacks != 1 {
		t.Fatalf("refused merge must roll back, got %d", store.rollbacks)
	}
}

func TestResolveValidatesArguments(t *testing.T) {
	t.Parallel()

	resolver := testResolver(newFakeMergeStore())

	cases := []struct {
		name           string
		keep, del, src int64
	}{
		{"missing keep", 0, 2, 9},
		{"missing delete", 1, 0, 9},
		{"missing source", 1, 2, 0},
		{"same video", 3, 3, 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := resolver.Resolve(context.Background(), tc.keep, tc.del, tc.src)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestResolveUnknownKeepVideo(t *testing.T) {
	t.Parallel()

	store := newFakeMergeStore()
	store.videos[2] = true
	two := int64(2)
	store.sourceVideo[9] = &two

	_, err := testResolver(store).Resolve(context.Background(), 1, 2, 9)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for unknown keep video, got %v", err)
	}
	if got := store.sourceVideo[9]; got == nil || *got != 2 {
		t.Fatalf("source 9 must be untouched, got %v", got)
	}
}

func TestResolveUnknownSource(t *testing.T) {
	t.Parallel()

	store := newFakeMergeStore()
	store.videos[1] = true
	store.videos[2] = true

	_, err := testResolver(store).Resolve(context.Background(), 1, 2, 9)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for unknown source, got %v", err)
	}
	if !store.videos[2] {
		t.Fatalf("video 2 must survive")
	}
}
