package state

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
)

func TestJSONSeenStore_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultSeenFile)
	store := NewJSONSeenStore(path)

	seen, err := store.LoadSeen(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(seen.Posts) != 0 || len(seen.Comments) != 0 {
		t.Errorf("Expected empty seen set, got %+v", seen)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected file to be created: %v", err)
	}
	var doc map[string][]string
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["posts"] == nil || doc["comments"] == nil {
		t.Errorf("Expected empty arrays, got %s", data)
	}
}

func TestJSONSeenStore_RoundTrip(t *testing.T) {
	store := NewJSONSeenStore(filepath.Join(t.TempDir(), "seen.json"))
	ctx := context.Background()

	seen := NewSeenSet()
	seen.Add(forum.KindPost, "p2")
	seen.Add(forum.KindPost, "p1")
	seen.Add(forum.KindComment, "c1")

	if err := store.SaveSeen(ctx, seen); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.LoadSeen(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, seen) {
		t.Errorf("Expected %+v, got %+v", seen, loaded)
	}

	// the whole set is replaced on save
	if err := store.SaveSeen(ctx, NewSeenSet()); err != nil {
		t.Fatal(err)
	}
	loaded, err = store.LoadSeen(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Posts) != 0 {
		t.Errorf("Expected posts to be replaced, got %v", loaded.Posts)
	}
}

func TestJSONSeenStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewJSONSeenStore(path).LoadSeen(context.Background()); err == nil {
		t.Error("Expected error for corrupt file")
	}
}

func TestJSONProgressStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultProgressFile)
	store := NewJSONProgressStore(path)
	ctx := context.Background()

	p, err := store.LoadProgress(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p != DefaultProgress {
		t.Errorf("Expected default progress, got %v", p)
	}

	if err := store.SaveProgress(ctx, Progress{Season: 2, Episode: 5}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["currentSeason"] != 2 || raw["currentEpisode"] != 5 {
		t.Errorf("Unexpected file contents: %s", data)
	}

	p, err = store.LoadProgress(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p != (Progress{Season: 2, Episode: 5}) {
		t.Errorf("Expected S2E5, got %v", p)
	}

	err = store.SaveProgress(ctx, Progress{Season: 0, Episode: 1})
	if !errors.Is(err, ErrInvalidProgress) {
		t.Errorf("Expected ErrInvalidProgress, got %v", err)
	}
}

func TestProgress_Less(t *testing.T) {
	tests := []struct {
		a, b Progress
		want bool
	}{
		{Progress{1, 0}, Progress{1, 1}, true},
		{Progress{1, 9}, Progress{2, 0}, true},
		{Progress{2, 0}, Progress{1, 9}, false},
		{Progress{1, 1}, Progress{1, 1}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Less(tt.b); got != tt.want {
			t.Errorf("%v < %v: expected %v, got %v", tt.a, tt.b, tt.want, got)
		}
	}
}

type failingSeenStore struct {
	saves int
	fail  bool
}

func (s *failingSeenStore) LoadSeen(context.Context) (*SeenSet, error) {
	return nil, errors.New("disk on fire")
}

func (s *failingSeenStore) SaveSeen(context.Context, *SeenSet) error {
	s.saves++
	if s.fail {
		return errors.New("disk on fire")
	}
	return nil
}

func TestTracker_MarkIfUnseenIsIdempotent(t *testing.T) {
	store := NewJSONSeenStore(filepath.Join(t.TempDir(), "seen.json"))
	ctx := context.Background()
	tracker := NewTracker(ctx, store)

	if !tracker.MarkIfUnseen(ctx, forum.KindPost, "abc") {
		t.Error("First mark should report unseen")
	}
	if tracker.MarkIfUnseen(ctx, forum.KindPost, "abc") {
		t.Error("Second mark should report seen")
	}
	if tracker.Has(forum.KindComment, "abc") {
		t.Error("Posts and comments must be tracked separately")
	}

	reloaded := NewTracker(ctx, store)
	if !reloaded.Has(forum.KindPost, "abc") {
		t.Error("Mark should be persisted")
	}
}

func TestTracker_StoreFailuresAreNotFatal(t *testing.T) {
	store := &failingSeenStore{fail: true}
	ctx := context.Background()
	tracker := NewTracker(ctx, store)

	tracker.Mark(ctx, forum.KindComment, "c1")
	if !tracker.Has(forum.KindComment, "c1") {
		t.Error("Mark should update memory even when the store fails")
	}

	if err := tracker.Flush(ctx, false); err == nil {
		t.Error("Expected flush to retry and fail")
	}

	store.fail = false
	if err := tracker.Flush(ctx, false); err != nil {
		t.Fatal(err)
	}
	saves := store.saves
	if err := tracker.Flush(ctx, false); err != nil {
		t.Fatal(err)
	}
	if store.saves != saves {
		t.Error("Clean tracker should not write on a non-forced flush")
	}
	if err := tracker.Flush(ctx, true); err != nil {
		t.Fatal(err)
	}
	if store.saves != saves+1 {
		t.Error("Forced flush should write")
	}

	posts, comments := tracker.Counts()
	if posts != 0 || comments != 1 {
		t.Errorf("Expected 0/1, got %d/%d", posts, comments)
	}
}

func TestWriteJSON_ReplacesWithoutLeftovers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "episodeState.json")

	for _, p := range []Progress{{Season: 1, Episode: 1}, {Season: 1, Episode: 2}} {
		if err := writeJSON(path, p); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "episodeState.json" {
		t.Errorf("Expected only the target file, got %v", entries)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"currentSeason\": 1,\n  \"currentEpisode\": 2\n}"
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}
}
