package slotstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Completion records a slot that uploaded successfully on a given day.
type Completion struct {
	Key         string
	Day         string
	Slot        string
	VideoID     string
	AttemptID   string
	CompletedAt time.Time
}

// Store tracks completed slots so a slot uploads at most once per day.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the slot database and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("slot store: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create slot store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// IsCompleted reports whether key has already been uploaded.
func (s *Store) IsCompleted(ctx context.Context, key string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM completed_slots WHERE slot_key = ?", key).Scan(&count); err != nil {
		return false, fmt.Errorf("query completed slot: %w", err)
	}
	return count > 0, nil
}

// MarkCompleted records a successful upload. Re-marking a key keeps the
// first record.
func (s *Store) MarkCompleted(ctx context.Context, c Completion) error {
	if strings.TrimSpace(c.Key) == "" {
		return errors.New("mark completed: key required")
	}
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO completed_slots (slot_key, day, slot, video_id, attempt_id, completed_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		c.Key, c.Day, c.Slot, c.VideoID, c.AttemptID, c.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert completed slot: %w", err)
	}
	return nil
}

// Prune deletes completions for days before cutoffDay (YYYY-MM-DD) and
// returns how many rows were removed.
func (s *Store) Prune(ctx context.Context, cutoffDay string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM completed_slots WHERE day < ?", cutoffDay)
	if err != nil {
		return 0, fmt.Errorf("prune completed slots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// List returns completions newest first.
func (s *Store) List(ctx context.Context) ([]Completion, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT slot_key, day, slot, video_id, attempt_id, completed_at FROM completed_slots ORDER BY completed_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list completed slots: %w", err)
	}
	defer rows.Close()

	var out []Completion
	for rows.Next() {
		var c Completion
		var completedAt string
		if err := rows.Scan(&c.Key, &c.Day, &c.Slot, &c.VideoID, &c.AttemptID, &completedAt); err != nil {
			return nil, fmt.Errorf("scan completed slot: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, completedAt); err == nil {
			c.CompletedAt = ts
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
