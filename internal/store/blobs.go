package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Blob is a versioned remote document as served by the reference backend.
type Blob struct {
	Name    string
	Content []byte
	Version string
}

// BlobStore persists the reference backend's versioned blobs. It shares the
// SQLite database with the local store but lives in its own table.
type BlobStore struct {
	db *sql.DB
}

// Blobs returns the blob store backed by this database.
func (s *SQLiteStore) Blobs() *BlobStore {
	return &BlobStore{db: s.db}
}

// Get returns the blob with the given name, or ErrBlobNotFound.
func (b *BlobStore) Get(ctx context.Context, name string) (*Blob, error) {
	blob := &Blob{Name: name}
	err := b.db.QueryRowContext(ctx,
		"SELECT content, version FROM blobs WHERE name = ?", name,
	).Scan(&blob.Content, &blob.Version)
	if err == sql.ErrNoRows {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get blob %s: %v", ErrReadFailed, name, err)
	}
	return blob, nil
}

// Put writes a blob conditionally. For an existing blob the supplied version
// must match the stored one or the write is rejected with ErrVersionMismatch;
// for a first write the version must be empty. Returns the new version token.
func (b *BlobStore) Put(ctx context.Context, name string, content []byte, version string) (string, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: put blob %s: %v", ErrWriteFailed, name, err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, "SELECT version FROM blobs WHERE name = ?", name).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		if version != "" {
			return "", ErrVersionMismatch
		}
	case err != nil:
		return "", fmt.Errorf("%w: put blob %s: %v", ErrWriteFailed, name, err)
	default:
		if version != current {
			return "", ErrVersionMismatch
		}
	}

	next := ulid.Make().String()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO blobs (name, content, version, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET content = excluded.content, version = excluded.version, updated_at = excluded.updated_at
	`, name, content, next, now)
	if err != nil {
		return "", fmt.Errorf("%w: put blob %s: %v", ErrWriteFailed, name, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: put blob %s: %v", ErrWriteFailed, name, err)
	}
	return next, nil
}
