// Package api implements the reference blob backend: a versioned content
// store addressed by blob name, with conditional overwrite via a version
// token. It is the server side of the protocol internal/remote speaks.
package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haloteknika/fiberdesk/internal/store"
)

// maxBlobBytes caps decoded blob size. Snapshots are record arrays, not
// bulk media; anything larger is a client bug.
const maxBlobBytes = 16 << 20

// Handler holds the blob backend's dependencies.
type Handler struct {
	blobs   *store.BlobStore
	apiKey  string
	version string
}

// NewHandler creates a Handler.
func NewHandler(blobs *store.BlobStore, apiKey, version string) *Handler {
	return &Handler{blobs: blobs, apiKey: apiKey, version: version}
}

// blobResponse is the GET wire format.
type blobResponse struct {
	Content string `json:"content"`
	Version string `json:"version"`
}

// putRequest is the PUT wire format. Version is omitted on first write and
// carries the previously read token on update.
type putRequest struct {
	Content string `json:"content"`
	Version string `json:"version,omitempty"`
}

// putResponse returns the new version token on an accepted write.
type putResponse struct {
	Version string `json:"version"`
}

// Health handles GET /api/v1/health (unauthenticated).
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// GetBlob handles GET /api/v1/blobs/{name}. A blob that was never written
// is a 404; clients treat that as "no data yet".
func (h *Handler) GetBlob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	blob, err := h.blobs.Get(r.Context(), name)
	if errors.Is(err, store.ErrBlobNotFound) {
		WriteProblem(w, r, http.StatusNotFound, fmt.Sprintf("Blob %q not found", name))
		return
	}
	if err != nil {
		slog.Error("blob read failed", "component", "api", "blob", name, "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(blobResponse{
		Content: base64.StdEncoding.EncodeToString(blob.Content),
		Version: blob.Version,
	})
}

// PutBlob handles PUT /api/v1/blobs/{name}. A stale version token is a 409:
// the client lost the race and must re-read before retrying.
func (h *Handler) PutBlob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req putRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBlobBytes)).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err))
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Content must be base64")
		return
	}

	version, err := h.blobs.Put(r.Context(), name, content, req.Version)
	if errors.Is(err, store.ErrVersionMismatch) {
		WriteProblem(w, r, http.StatusConflict, "Version token is stale; re-read the blob")
		return
	}
	if err != nil {
		slog.Error("blob write failed", "component", "api", "blob", name, "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	status := http.StatusOK
	if req.Version == "" {
		status = http.StatusCreated
	}

	slog.Info("blob written",
		"component", "api",
		"action", "blob_put",
		"blob", name,
		"bytes", len(content),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(putResponse{Version: version})
}
