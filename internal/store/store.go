// Package store provides the durable local store: crash-safe, versioned
// persistence for named collections, each holding one full-snapshot document.
package store

import (
	"context"
	"encoding/json"
)

// Store is the contract for collection snapshot persistence.
//
// A snapshot is the complete, ordered JSON array of records for a collection.
// Put replaces it wholesale; there are no partial patches. The staging slot
// methods back the sync engine's offline buffer: at most one staged write per
// collection, overwritten by later stages.
type Store interface {
	Put(ctx context.Context, collection string, snapshot json.RawMessage) error
	Get(ctx context.Context, collection string) (json.RawMessage, error)
	Clear(ctx context.Context, collection string) error
	ClearAll(ctx context.Context) error

	Stage(ctx context.Context, collection string, snapshot json.RawMessage) error
	GetStaged(ctx context.Context, collection string) (json.RawMessage, bool, error)
	ClearStaged(ctx context.Context, collection string) error

	Close() error
}
