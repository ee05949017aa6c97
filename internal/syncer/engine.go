// Package syncer reconciles local collection snapshots with the remote blob
// backend across unreliable connectivity.
//
// Per collection the engine runs two kinds of cycle: periodic fetches (remote
// wins on read) and caller-triggered pushes (optimistic local write, then a
// read-modify-write against the remote). While offline the intended remote
// content is staged durably and drained on the next offline→online edge,
// before any fetch is allowed to run — pending local intent must not be
// clobbered by a fresh remote read.
package syncer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/haloteknika/fiberdesk/internal/remote"
	"github.com/haloteknika/fiberdesk/internal/store"
)

// Connectivity reports the current online/offline state.
// Implemented by netmon.Monitor.
type Connectivity interface {
	Online() bool
}

// Remote is the blob backend surface the engine needs.
// Implemented by remote.Client.
type Remote interface {
	CanWrite() bool
	Get(ctx context.Context, name string) (*remote.Blob, error)
	Put(ctx context.Context, name string, content []byte, version string) error
}

// Status is the process-wide sync state. It is not persisted.
type Status struct {
	Online    bool
	LastFetch time.Time
}

// Engine keeps a set of collections eventually consistent with the backend.
type Engine struct {
	store       store.Store
	remote      Remote
	conn        Connectivity
	interval    time.Duration
	collections []string
	locks       *keyedLocks

	mu        sync.Mutex
	lastFetch time.Time
}

// New creates an Engine syncing the given collections.
func New(st store.Store, rc Remote, conn Connectivity, interval time.Duration, collections []string) *Engine {
	return &Engine{
		store:       st,
		remote:      rc,
		conn:        conn,
		interval:    interval,
		collections: collections,
		locks:       newKeyedLocks(),
	}
}

// Status returns a snapshot of the engine's sync state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{Online: e.conn.Online(), LastFetch: e.lastFetch}
}

// Run starts the periodic fetch loop and blocks until ctx is cancelled. An
// in-flight cycle at cancellation time completes but nothing further is
// scheduled. The startup fetch is driven by the connectivity monitor's first
// offline→online edge (see HandleReconnect), not by Run.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("sync engine started",
		"component", "syncer",
		"interval", e.interval.String(),
		"collections", len(e.collections),
	)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync engine stopped",
				"component", "syncer",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			e.fetchAll(ctx)
		}
	}
}

// fetchAll runs one fetch cycle over every synced collection. Skipped
// entirely while offline: no retry storm against an unreachable backend.
func (e *Engine) fetchAll(ctx context.Context) {
	if !e.conn.Online() {
		return
	}
	for _, collection := range e.collections {
		if ctx.Err() != nil {
			return
		}
		e.fetch(ctx, collection)
	}
}

// fetch replaces the local snapshot with the remote one. Remote wins on
// read. Dropped when a cycle for the collection is already in flight.
func (e *Engine) fetch(ctx context.Context, collection string) {
	release, ok := e.locks.TryAcquire(collection)
	if !ok {
		return
	}
	defer release()

	// A pending staged write is an offline edit that has not reached the
	// backend yet; a remote read taken now would be stale against it. The
	// reconnect handler drains the slot, after which fetches resume.
	if _, pending, err := e.store.GetStaged(ctx, collection); err != nil || pending {
		if err != nil {
			slog.Error("staged read failed",
				"component", "syncer",
				"action", "fetch_staged_check_failed",
				"collection", collection,
				"error", err,
			)
		}
		return
	}

	blob, err := e.remote.Get(ctx, collection)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("fetch failed",
			"component", "syncer",
			"action", "fetch_failed",
			"collection", collection,
			"error", err,
		)
		return
	}

	if blob == nil {
		// Remote blob not yet created: no data, not an error.
		e.markFetched()
		return
	}

	if err := e.store.Put(ctx, collection, json.RawMessage(blob.Content)); err != nil {
		slog.Error("fetch local write failed",
			"component", "syncer",
			"action", "fetch_store_failed",
			"collection", collection,
			"error", err,
		)
		return
	}

	e.markFetched()
	slog.Debug("fetch complete",
		"component", "syncer",
		"action", "fetch_complete",
		"collection", collection,
		"version", blob.Version,
	)
}

func (e *Engine) markFetched() {
	e.mu.Lock()
	e.lastFetch = time.Now().UTC()
	e.mu.Unlock()
}

// Write replaces a collection's snapshot. The local store is updated first,
// so the write is durable before any backend traffic; the push attempt then
// runs synchronously, so the caller may block for up to the HTTP timeout on
// an unresponsive backend. A failed or unavailable backend stages the
// snapshot instead of surfacing an error.
func (e *Engine) Write(ctx context.Context, collection string, snapshot json.RawMessage) error {
	return e.Update(ctx, collection, func(json.RawMessage) (json.RawMessage, bool, error) {
		return snapshot, true, nil
	})
}

// Update runs a locked read-modify-write on a collection. fn receives the
// current snapshot and returns the replacement; returning changed=false
// skips the store write and the push entirely. The lifecycle worker runs its
// pass through here, which serializes it against fetch cycles on the same
// collection.
func (e *Engine) Update(ctx context.Context, collection string, fn func(current json.RawMessage) (json.RawMessage, bool, error)) error {
	release := e.locks.Acquire(collection)
	defer release()

	current, err := e.store.Get(ctx, collection)
	if err != nil {
		return err
	}

	next, changed, err := fn(current)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := e.store.Put(ctx, collection, next); err != nil {
		return err
	}

	e.forward(ctx, collection, next)
	return nil
}

// forward attempts to push a freshly written snapshot, staging it when the
// backend cannot accept it right now. Called with the collection lock held.
func (e *Engine) forward(ctx context.Context, collection string, snapshot json.RawMessage) {
	// No credential is a valid, permanent read-only state: skip the push
	// silently and stage, exactly like the offline path.
	if !e.conn.Online() || !e.remote.CanWrite() {
		e.stage(ctx, collection, snapshot)
		return
	}

	if err := e.push(ctx, collection, snapshot); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("push failed, staging write",
			"component", "syncer",
			"action", "push_failed",
			"collection", collection,
			"error", err,
		)
		e.stage(ctx, collection, snapshot)
	}
}

// push performs the remote read-modify-write: re-fetch the current version
// token, then submit the new content with it. The token is deliberately not
// cached from the last fetch cycle; the extra round trip avoids acting on a
// stale token. Conflict resolution is the backend's call, not ours.
func (e *Engine) push(ctx context.Context, collection string, snapshot json.RawMessage) error {
	var version string
	blob, err := e.remote.Get(ctx, collection)
	if err != nil {
		return err
	}
	if blob != nil {
		version = blob.Version
	}

	if err := e.remote.Put(ctx, collection, []byte(snapshot), version); err != nil {
		return err
	}

	slog.Info("push complete",
		"component", "syncer",
		"action", "push_complete",
		"collection", collection,
	)
	return nil
}

// stage persists the intended remote content so it survives a restart before
// connectivity returns. Only the latest write per collection is kept.
func (e *Engine) stage(ctx context.Context, collection string, snapshot json.RawMessage) {
	if err := e.store.Stage(ctx, collection, snapshot); err != nil {
		slog.Error("staging failed",
			"component", "syncer",
			"action", "stage_failed",
			"collection", collection,
			"error", err,
		)
	}
}

// HandleReconnect runs on each offline→online edge. Per collection, a staged
// write is drained through the push path first and the slot cleared only on
// success; a collection with nothing staged gets an immediate fetch instead.
// The ordering is the point: trusting a fresh remote read before draining
// pending local intent would silently discard an offline change.
func (e *Engine) HandleReconnect(ctx context.Context) {
	for _, collection := range e.collections {
		if ctx.Err() != nil {
			return
		}
		e.reconnectCollection(ctx, collection)
	}
}

func (e *Engine) reconnectCollection(ctx context.Context, collection string) {
	release := e.locks.Acquire(collection)
	defer release()

	staged, ok, err := e.store.GetStaged(ctx, collection)
	if err != nil {
		slog.Error("staged read failed",
			"component", "syncer",
			"action", "reconnect_failed",
			"collection", collection,
			"error", err,
		)
		return
	}

	if !ok {
		// Nothing pending: an immediate fetch brings us up to date. Inline
		// rather than via fetch() because we already hold the lock.
		blob, err := e.remote.Get(ctx, collection)
		if err != nil || blob == nil {
			if err == nil {
				e.markFetched()
			}
			return
		}
		if err := e.store.Put(ctx, collection, json.RawMessage(blob.Content)); err == nil {
			e.markFetched()
		}
		return
	}

	if !e.remote.CanWrite() {
		// Still read-only; the staged write stays put for a future
		// credentialed run.
		return
	}

	if err := e.push(ctx, collection, staged); err != nil {
		slog.Warn("staged push failed, will retry on next reconnect",
			"component", "syncer",
			"action", "replay_failed",
			"collection", collection,
			"error", err,
		)
		return
	}

	// Restore the local snapshot too: a fetch cycle that ran between the
	// offline write and this drain may have replaced it with older remote
	// content. The staged content is now durable remotely, so a failed
	// local write is recoverable by the next fetch.
	if err := e.store.Put(ctx, collection, staged); err != nil {
		slog.Error("staged local restore failed",
			"component", "syncer",
			"action", "replay_restore_failed",
			"collection", collection,
			"error", err,
		)
	}

	if err := e.store.ClearStaged(ctx, collection); err != nil {
		slog.Error("staged clear failed",
			"component", "syncer",
			"action", "replay_clear_failed",
			"collection", collection,
			"error", err,
		)
		return
	}

	slog.Info("staged write replayed",
		"component", "syncer",
		"action", "replay_complete",
		"collection", collection,
	)
}
