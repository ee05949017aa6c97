package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// emptySnapshot is what Get returns for a never-written collection. Absence
// is "no data yet", not an error.
var emptySnapshot = json.RawMessage("[]")

// SQLiteStore is the SQLite-backed local store.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens the local store at dbPath. It is idempotent: opening
// an existing database applies only pending migrations. Returns
// ErrStoreUnavailable when the platform denies storage access.
func Open(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create directory: %v", ErrStoreUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrStoreUnavailable, err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable pragmas: %v", ErrStoreUnavailable, err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: run migrations: %v", ErrStoreUnavailable, err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put replaces the entire snapshot of a collection. The upsert runs in a
// single statement, so readers never observe a partial snapshot.
func (s *SQLiteStore) Put(ctx context.Context, collection string, snapshot json.RawMessage) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, snapshot, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at
	`, collection, string(snapshot), now)
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrWriteFailed, collection, err)
	}
	return nil
}

// Get returns the current snapshot of a collection, or an empty array for a
// collection that has never been written.
func (s *SQLiteStore) Get(ctx context.Context, collection string) (json.RawMessage, error) {
	var snapshot string
	err := s.db.QueryRowContext(ctx,
		"SELECT snapshot FROM collections WHERE name = ?", collection,
	).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return emptySnapshot, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrReadFailed, collection, err)
	}
	return json.RawMessage(snapshot), nil
}

// Clear removes a collection's snapshot. Clearing an absent collection is a
// no-op.
func (s *SQLiteStore) Clear(ctx context.Context, collection string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", collection)
	if err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrWriteFailed, collection, err)
	}
	return nil
}

// ClearAll removes every collection snapshot and every staged write.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: clear all: %v", ErrWriteFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM collections"); err != nil {
		return fmt.Errorf("%w: clear all: %v", ErrWriteFailed, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM staged_writes"); err != nil {
		return fmt.Errorf("%w: clear all: %v", ErrWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: clear all: %v", ErrWriteFailed, err)
	}
	return nil
}

// Stage records an offline pending write for a collection. A second stage to
// the same collection overwrites the first: the slot holds only the latest
// pending write (last-write-wins, no queue).
func (s *SQLiteStore) Stage(ctx context.Context, collection string, snapshot json.RawMessage) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staged_writes (collection, snapshot, staged_at)
		VALUES (?, ?, ?)
		ON CONFLICT(collection) DO UPDATE SET snapshot = excluded.snapshot, staged_at = excluded.staged_at
	`, collection, string(snapshot), now)
	if err != nil {
		return fmt.Errorf("%w: stage %s: %v", ErrWriteFailed, collection, err)
	}
	return nil
}

// GetStaged returns the staged write for a collection, if any.
func (s *SQLiteStore) GetStaged(ctx context.Context, collection string) (json.RawMessage, bool, error) {
	var snapshot string
	err := s.db.QueryRowContext(ctx,
		"SELECT snapshot FROM staged_writes WHERE collection = ?", collection,
	).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get staged %s: %v", ErrReadFailed, collection, err)
	}
	return json.RawMessage(snapshot), true, nil
}

// ClearStaged removes the staged write for a collection. Idempotent.
func (s *SQLiteStore) ClearStaged(ctx context.Context, collection string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM staged_writes WHERE collection = ?", collection)
	if err != nil {
		return fmt.Errorf("%w: clear staged %s: %v", ErrWriteFailed, collection, err)
	}
	return nil
}
