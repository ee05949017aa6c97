package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haloteknika/fiberdesk/internal/api"
	"github.com/haloteknika/fiberdesk/internal/remote"
	"github.com/haloteknika/fiberdesk/internal/store"
)

const testAPIKey = "integration-test-key"

// startBackend runs the reference blob backend over httptest and counts PUTs.
func startBackend(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "backend.db"))
	if err != nil {
		t.Fatalf("open backend store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	router := api.NewRouter(api.NewHandler(db.Blobs(), testAPIKey, "test"))

	var puts atomic.Int64
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts.Add(1)
		}
		router.ServeHTTP(w, r)
	})

	srv := httptest.NewServer(counting)
	t.Cleanup(srv.Close)
	return srv, &puts
}

func TestOfflineDurability_AcrossRestart(t *testing.T) {
	srv, puts := startBackend(t)
	client := remote.NewClient(srv.URL, testAPIKey, 5*time.Second)
	ctx := context.Background()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "agent.db")

	// First process: two writes while offline, then die before reconnecting.
	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open agent store: %v", err)
	}
	engine := New(db, client, fakeConn{online: false}, time.Second, []string{"tickets"})
	if err := engine.Write(ctx, "tickets", json.RawMessage(`["first"]`)); err != nil {
		t.Fatalf("first offline write: %v", err)
	}
	if err := engine.Write(ctx, "tickets", json.RawMessage(`["second"]`)); err != nil {
		t.Fatalf("second offline write: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Second process: comes up online and reconnects.
	db2, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen agent store: %v", err)
	}
	defer db2.Close()

	engine2 := New(db2, client, fakeConn{online: true}, time.Second, []string{"tickets"})
	engine2.HandleReconnect(ctx)

	// Exactly one push, carrying the last offline write.
	if got := puts.Load(); got != 1 {
		t.Errorf("push attempts = %d, want exactly 1", got)
	}
	blob, err := client.Get(ctx, "tickets")
	if err != nil {
		t.Fatalf("remote get: %v", err)
	}
	if blob == nil || string(blob.Content) != `["second"]` {
		t.Errorf("remote content = %v, want the last offline write", blob)
	}

	// Slot drained: a later reconnect fetches instead of re-pushing.
	engine2.HandleReconnect(ctx)
	if got := puts.Load(); got != 1 {
		t.Errorf("push attempts after drain = %d, want still 1", got)
	}
}

func TestReconnectOrdering_StagedWriteNotClobberedByFetch(t *testing.T) {
	srv, _ := startBackend(t)
	client := remote.NewClient(srv.URL, testAPIKey, 5*time.Second)
	ctx := context.Background()

	// Seed the backend with content the offline write must supersede.
	if err := client.Put(ctx, "tickets", []byte(`["stale-remote"]`), ""); err != nil {
		t.Fatalf("seed backend: %v", err)
	}

	db, err := store.Open(filepath.Join(t.TempDir(), "agent.db"))
	if err != nil {
		t.Fatalf("open agent store: %v", err)
	}
	defer db.Close()

	engine := New(db, client, fakeConn{online: false}, time.Second, []string{"tickets"})
	if err := engine.Write(ctx, "tickets", json.RawMessage(`["offline-edit"]`)); err != nil {
		t.Fatalf("offline write: %v", err)
	}

	online := New(db, client, fakeConn{online: true}, time.Second, []string{"tickets"})
	online.HandleReconnect(ctx)

	// The immediate next remote state reflects the offline write.
	blob, err := client.Get(ctx, "tickets")
	if err != nil {
		t.Fatalf("remote get: %v", err)
	}
	if string(blob.Content) != `["offline-edit"]` {
		t.Errorf("remote content = %s, want the offline edit", blob.Content)
	}

	// And the local snapshot was not clobbered by a stale fetch.
	local, err := db.Get(ctx, "tickets")
	if err != nil {
		t.Fatalf("local get: %v", err)
	}
	if string(local) != `["offline-edit"]` {
		t.Errorf("local content = %s, want the offline edit", local)
	}
}

func TestPushConflict_BackendEnforcesVersion(t *testing.T) {
	srv, _ := startBackend(t)
	client := remote.NewClient(srv.URL, testAPIKey, 5*time.Second)
	ctx := context.Background()

	if err := client.Put(ctx, "tickets", []byte(`["v1"]`), ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	blob, err := client.Get(ctx, "tickets")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	// A concurrent writer rotates the version.
	if err := client.Put(ctx, "tickets", []byte(`["v2"]`), blob.Version); err != nil {
		t.Fatalf("concurrent put: %v", err)
	}

	// Our stale token is rejected; the engine treats this as a push failure.
	if err := client.Put(ctx, "tickets", []byte(`["late"]`), blob.Version); err == nil {
		t.Fatal("expected stale-version put to fail")
	}
}
