package state

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
)

// SeenSet holds the ids of posts and comments the bot has acted on.
type SeenSet struct {
	Posts    map[string]struct{}
	Comments map[string]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{
		Posts:    make(map[string]struct{}),
		Comments: make(map[string]struct{}),
	}
}

func (s *SeenSet) bucket(kind forum.Kind) map[string]struct{} {
	if kind == forum.KindComment {
		return s.Comments
	}
	return s.Posts
}

func (s *SeenSet) Has(kind forum.Kind, id string) bool {
	_, ok := s.bucket(kind)[id]
	return ok
}

func (s *SeenSet) Add(kind forum.Kind, id string) {
	s.bucket(kind)[id] = struct{}{}
}

// Sorted returns both buckets as sorted slices.
func (s *SeenSet) Sorted() (posts, comments []string) {
	return sortedKeys(s.Posts), sortedKeys(s.Comments)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type SeenStore interface {
	LoadSeen(ctx context.Context) (*SeenSet, error)
	SaveSeen(ctx context.Context, seen *SeenSet) error
}

// Tracker owns the in-memory seen set and writes it through to a store.
// Store failures are logged and never stop the caller.
type Tracker struct {
	mu    sync.Mutex
	seen  *SeenSet
	store SeenStore
	dirty bool
}

// NewTracker loads the seen set from the store, starting empty if that fails.
func NewTracker(ctx context.Context, store SeenStore) *Tracker {
	seen, err := store.LoadSeen(ctx)
	if err != nil {
		slog.Error("Failed to load seen set, starting empty", "error", err)
		seen = NewSeenSet()
	}
	return &Tracker{seen: seen, store: store}
}

func (t *Tracker) Has(kind forum.Kind, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen.Has(kind, id)
}

// MarkIfUnseen adds the id and persists the set. It returns false without
// touching the store when the id was already present.
func (t *Tracker) MarkIfUnseen(ctx context.Context, kind forum.Kind, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen.Has(kind, id) {
		return false
	}
	t.seen.Add(kind, id)
	t.persistLocked(ctx)
	return true
}

// Mark adds the id and persists the set.
func (t *Tracker) Mark(ctx context.Context, kind forum.Kind, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seen.Add(kind, id)
	t.persistLocked(ctx)
}

// Flush writes the set if the last write failed, or unconditionally when force is set.
func (t *Tracker) Flush(ctx context.Context, force bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.dirty && !force {
		return nil
	}
	if err := t.store.SaveSeen(ctx, t.seen); err != nil {
		t.dirty = true
		return err
	}
	t.dirty = false
	return nil
}

func (t *Tracker) Counts() (posts, comments int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen.Posts), len(t.seen.Comments)
}

func (t *Tracker) persistLocked(ctx context.Context) {
	if err := t.store.SaveSeen(ctx, t.seen); err != nil {
		t.dirty = true
		slog.Error("Failed to save seen set", "error", err)
		return
	}
	t.dirty = false
}
