// Package remote implements the HTTP client for the versioned blob backend.
//
// The backend is an opaque content store addressed by blob name: GET returns
// the current content and a version token, PUT submits new content together
// with the previously read token so the backend can reject a stale write.
// There are no multi-blob transactional guarantees.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrFetchFailed wraps remote read errors. A 404 is not a fetch failure.
	ErrFetchFailed = errors.New("remote fetch failed")

	// ErrPushFailed wraps remote write rejections and transport errors.
	ErrPushFailed = errors.New("remote push failed")
)

// Blob is the remote representation of one synced collection.
type Blob struct {
	Content []byte
	Version string
}

// blobPayload is the wire format for both directions.
type blobPayload struct {
	Content string `json:"content"`
	Version string `json:"version,omitempty"`
}

// Client talks to one blob backend. A Client with an empty token is
// read-only: Put must not be called (the sync engine skips the push path
// entirely in that case).
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewClient creates a Client for the given endpoint. An empty token yields a
// read-only client.
func NewClient(endpoint, token string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether a backend endpoint is set at all.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// CanWrite reports whether a write credential is configured.
func (c *Client) CanWrite() bool {
	return c.token != ""
}

// Ping checks backend reachability via the unauthenticated health route.
func (c *Client) Ping(ctx context.Context) error {
	if c.endpoint == "" {
		return fmt.Errorf("%w: endpoint not configured", ErrFetchFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check status %d", ErrFetchFailed, resp.StatusCode)
	}

	return nil
}

// Get fetches a blob. A missing blob returns (nil, nil): "no data yet" is
// not an error.
func (c *Client) Get(ctx context.Context, name string) (*Blob, error) {
	resp, err := c.send(ctx, http.MethodGet, name, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var payload blobPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrFetchFailed, err)
	}

	content, err := base64.StdEncoding.DecodeString(payload.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: decode content: %v", ErrFetchFailed, err)
	}

	return &Blob{Content: content, Version: payload.Version}, nil
}

// Put writes a blob conditionally. version must be the token from the
// preceding Get, or empty for a first write. Any non-2xx response is a push
// failure; the caller decides whether to stage and retry later.
func (c *Client) Put(ctx context.Context, name string, content []byte, version string) error {
	payload := blobPayload{
		Content: base64.StdEncoding.EncodeToString(content),
		Version: version,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrPushFailed, err)
	}

	resp, err := c.send(ctx, http.MethodPut, name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPushFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// Drain so the connection can be reused; the body is a problem
		// document we do not act on.
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", ErrPushFailed, resp.StatusCode)
	}

	return nil
}

// send issues an authenticated request against the blob routes.
func (c *Client) send(ctx context.Context, method, name string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+"/api/v1/blobs/"+name, body)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.client.Do(req)
}
