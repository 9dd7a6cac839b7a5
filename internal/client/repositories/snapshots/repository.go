// Package snapshots stores the last successfully loaded payload of a
// resource list (e.g. the meals of a day) so it can be shown while the API is
// unreachable.
package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/common"
	"github.com/dmitrijs2005/mealkeeper/internal/dbx"
)

// Snapshot is one stored payload.
type Snapshot struct {
	Key     string
	Payload []byte
	SavedAt time.Time
}

type Repository interface {
	// Save inserts or replaces the snapshot stored under s.Key.
	Save(ctx context.Context, s Snapshot) error
	// Load returns common.ErrorNotFound when nothing is stored under key.
	Load(ctx context.Context, key string) (Snapshot, error)
	// Clear drops every snapshot.
	Clear(ctx context.Context) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, s Snapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, payload, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
	`, s.Key, s.Payload, s.SavedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot[%s]: %w", s.Key, err)
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context, key string) (Snapshot, error) {
	s := Snapshot{Key: key}
	err := r.db.QueryRowContext(ctx, `SELECT payload, saved_at FROM snapshots WHERE key = ?`, key).
		Scan(&s.Payload, &s.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, common.ErrorNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load snapshot[%s]: %w", key, err)
	}
	return s, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
