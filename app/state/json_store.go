package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

const (
	DefaultSeenFile     = "seenContent.json"
	DefaultProgressFile = "episodeState.json"
)

type seenFile struct {
	Posts    []string `json:"posts"`
	Comments []string `json:"comments"`
}

var (
	_ SeenStore     = (*JSONSeenStore)(nil)
	_ ProgressStore = (*JSONProgressStore)(nil)
)

// JSONSeenStore keeps the seen set in a single JSON document.
type JSONSeenStore struct {
	path string
}

func NewJSONSeenStore(path string) *JSONSeenStore {
	return &JSONSeenStore{path: path}
}

// LoadSeen reads the seen set. A missing file is created with empty lists.
func (s *JSONSeenStore) LoadSeen(ctx context.Context) (*SeenSet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		seen := NewSeenSet()
		if err := s.SaveSeen(ctx, seen); err != nil {
			return seen, err
		}
		slog.Info("Created seen set file", "path", s.path)
		return seen, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seen set: %w", err)
	}

	var doc seenFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seen set %s: %w", s.path, err)
	}

	seen := NewSeenSet()
	for _, id := range doc.Posts {
		seen.Posts[id] = struct{}{}
	}
	for _, id := range doc.Comments {
		seen.Comments[id] = struct{}{}
	}
	return seen, nil
}

func (s *JSONSeenStore) SaveSeen(_ context.Context, seen *SeenSet) error {
	posts, comments := seen.Sorted()
	return writeJSON(s.path, seenFile{Posts: posts, Comments: comments})
}

// JSONProgressStore keeps publish progress in a single JSON document.
type JSONProgressStore struct {
	path string
}

func NewJSONProgressStore(path string) *JSONProgressStore {
	return &JSONProgressStore{path: path}
}

// LoadProgress reads the progress. A missing file is created with the default.
func (s *JSONProgressStore) LoadProgress(ctx context.Context) (Progress, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.SaveProgress(ctx, DefaultProgress); err != nil {
			return DefaultProgress, err
		}
		slog.Info("Created progress file", "path", s.path, "progress", DefaultProgress.String())
		return DefaultProgress, nil
	}
	if err != nil {
		return DefaultProgress, fmt.Errorf("failed to read progress: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultProgress, fmt.Errorf("failed to parse progress %s: %w", s.path, err)
	}
	if err := p.Validate(); err != nil {
		return DefaultProgress, err
	}
	return p, nil
}

func (s *JSONProgressStore) SaveProgress(_ context.Context, p Progress) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return writeJSON(s.path, p)
}

// writeJSON atomically replaces path with the indented encoding of v.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
