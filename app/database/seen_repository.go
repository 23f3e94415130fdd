package database

import (
	"context"
	"fmt"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
)

var _ state.SeenStore = (*SeenRepository)(nil)

// SeenRepository stores the seen set in the seen_items table
type SeenRepository struct {
	db *DB
}

// NewSeenRepository creates a new seen repository
func NewSeenRepository(db *DB) *SeenRepository {
	return &SeenRepository{db: db}
}

func (r *SeenRepository) LoadSeen(ctx context.Context) (*state.SeenSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, item_id FROM seen_items`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen items: %w", err)
	}
	defer rows.Close()

	seen := state.NewSeenSet()
	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, fmt.Errorf("failed to scan seen item: %w", err)
		}
		seen.Add(forum.Kind(kind), id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate seen items: %w", err)
	}
	return seen, nil
}

// SaveSeen replaces the stored set inside one transaction.
// Ids already present keep their original created_at.
func (r *SeenRepository) SaveSeen(ctx context.Context, seen *state.SeenSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS keep_items (kind TEXT, item_id TEXT)`); err != nil {
		return fmt.Errorf("failed to prepare seen items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM keep_items`); err != nil {
		return fmt.Errorf("failed to prepare seen items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO keep_items (kind, item_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	posts, comments := seen.Sorted()
	for _, batch := range []struct {
		kind forum.Kind
		ids  []string
	}{{forum.KindPost, posts}, {forum.KindComment, comments}} {
		for _, id := range batch.ids {
			if _, err := stmt.ExecContext(ctx, string(batch.kind), id); err != nil {
				return fmt.Errorf("failed to stage seen item %s: %w", id, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM seen_items
		WHERE NOT EXISTS (
			SELECT 1 FROM keep_items k WHERE k.kind = seen_items.kind AND k.item_id = seen_items.item_id
		)
	`); err != nil {
		return fmt.Errorf("failed to prune seen items: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO seen_items (kind, item_id)
		SELECT kind, item_id FROM keep_items
	`); err != nil {
		return fmt.Errorf("failed to insert seen items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seen items: %w", err)
	}
	return nil
}
