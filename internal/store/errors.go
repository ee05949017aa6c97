package store

import "errors"

var (
	// ErrStoreUnavailable means the platform denied storage access at open
	// time. Callers may continue in memory-only mode but must surface it once.
	ErrStoreUnavailable = errors.New("local store unavailable")

	// ErrReadFailed wraps backend corruption on read. Absence of a collection
	// is not a read failure.
	ErrReadFailed = errors.New("local store read failed")

	// ErrWriteFailed wraps backend errors on write. Callers must not assume
	// partial success: snapshot replacement is all-or-nothing.
	ErrWriteFailed = errors.New("local store write failed")

	// ErrVersionMismatch is returned by the blob backend when a conditional
	// write carries a stale version token.
	ErrVersionMismatch = errors.New("blob version mismatch")

	// ErrBlobNotFound is returned by the blob backend for an absent blob.
	ErrBlobNotFound = errors.New("blob not found")
)
