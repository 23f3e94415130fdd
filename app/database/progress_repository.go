package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
)

var _ state.ProgressStore = (*ProgressRepository)(nil)

// ProgressRepository stores publish progress in a single-row table
type ProgressRepository struct {
	db *DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// LoadProgress returns the stored progress, inserting the default row when missing.
func (r *ProgressRepository) LoadProgress(ctx context.Context) (state.Progress, error) {
	var p state.Progress
	err := r.db.QueryRowContext(ctx, `SELECT season, episode FROM publish_progress WHERE id = 1`).Scan(&p.Season, &p.Episode)
	if errors.Is(err, sql.ErrNoRows) {
		return state.DefaultProgress, r.SaveProgress(ctx, state.DefaultProgress)
	}
	if err != nil {
		return state.DefaultProgress, fmt.Errorf("failed to load progress: %w", err)
	}
	return p, nil
}

func (r *ProgressRepository) SaveProgress(ctx context.Context, p state.Progress) error {
	if err := p.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO publish_progress (id, season, episode, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			season = excluded.season,
			episode = excluded.episode,
			updated_at = CURRENT_TIMESTAMP
	`, p.Season, p.Episode)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}
