package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/catalog"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
)

type MockForum struct {
	mu        sync.Mutex
	items     []forum.Item
	fetchErr  error
	replyErr  error
	pinErr    error
	submitErr error
	fetches   int
	replies   []string
	submitted []string
	pinned    []string
}

func (m *MockForum) Authenticate(context.Context) error { return nil }

func (m *MockForum) Newest(_ context.Context, kind forum.Kind, _ []string, _ int) ([]forum.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []forum.Item
	for _, item := range m.items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MockForum) Reply(_ context.Context, item forum.Item, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replyErr != nil {
		return m.replyErr
	}
	m.replies = append(m.replies, item.ID+": "+text)
	return nil
}

func (m *MockForum) Submit(_ context.Context, _, title, _ string) (forum.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return forum.Submission{}, m.submitErr
	}
	m.submitted = append(m.submitted, title)
	return forum.Submission{ID: "new1", Fullname: "t3_new1"}, nil
}

func (m *MockForum) Pin(_ context.Context, s forum.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pinErr != nil {
		return m.pinErr
	}
	m.pinned = append(m.pinned, s.Fullname)
	return nil
}

type MockCatalog struct {
	episodes []catalog.Episode
	err      error
}

func (m *MockCatalog) Episodes(context.Context, string) ([]catalog.Episode, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]catalog.Episode, len(m.episodes))
	copy(out, m.episodes)
	return out, nil
}

type MemorySeenStore struct {
	mu    sync.Mutex
	saved *state.SeenSet
	saves int
}

func (m *MemorySeenStore) LoadSeen(context.Context) (*state.SeenSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return state.NewSeenSet(), nil
	}
	return cloneSeen(m.saved), nil
}

func (m *MemorySeenStore) SaveSeen(_ context.Context, seen *state.SeenSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = cloneSeen(seen)
	m.saves++
	return nil
}

type MemoryProgressStore struct {
	progress state.Progress
	loadErr  error
	saves    int
}

func (m *MemoryProgressStore) LoadProgress(context.Context) (state.Progress, error) {
	if m.loadErr != nil {
		return state.DefaultProgress, m.loadErr
	}
	return m.progress, nil
}

func (m *MemoryProgressStore) SaveProgress(_ context.Context, p state.Progress) error {
	m.progress = p
	m.saves++
	return nil
}

// sequence returns the values in order, then repeats the last one.
type sequence struct {
	values []float64
	i      int
}

func (s *sequence) Float64() float64 {
	v := s.values[min(s.i, len(s.values)-1)]
	s.i++
	return v
}

var errBoom = errors.New("boom")

func cloneSeen(seen *state.SeenSet) *state.SeenSet {
	c := state.NewSeenSet()
	for id := range seen.Posts {
		c.Add(forum.KindPost, id)
	}
	for id := range seen.Comments {
		c.Add(forum.KindComment, id)
	}
	return c
}
