// Package kvclient talks to the storage API of a workoutlog server.
package kvclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/workoutlog/internal/kvstore"
)

// Client implements kvstore.Store over GET/PUT/DELETE /api/storage/{key}.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: Client satisfies kvstore.Store.
var _ kvstore.Store = (*Client)(nil)

// New creates a Client targeting the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithAPIKey sends key in the X-API-Key header of every request.
func (c *Client) WithAPIKey(key string) *Client {
	c.apiKey = key
	return c
}

type valueEnvelope struct {
	Value json.RawMessage `json:"value"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func storagePath(key string) string {
	return "/api/storage/" + url.PathEscape(key)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("kvclient: encode body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("kvclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("kvclient: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("kvclient: read body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func statusError(method, path string, status int, body []byte) error {
	var e errorEnvelope
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("kvclient: %s %s returned %d: %s", method, path, status, e.Error)
	}
	return fmt.Errorf("kvclient: %s %s returned %d: %s", method, path, status, bytes.TrimSpace(body))
}

// Get fetches the value stored under key. A 404 is reported as kvstore.ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) (json.RawMessage, error) {
	path := storagePath(key)
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, kvstore.ErrNotFound
	default:
		return nil, statusError(http.MethodGet, path, status, body)
	}

	var env valueEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("kvclient: decode %s: %w", path, err)
	}
	if env.Value == nil {
		return json.RawMessage("null"), nil
	}
	return env.Value, nil
}

// Put stores value under key.
func (c *Client) Put(ctx context.Context, key string, value json.RawMessage) error {
	path := storagePath(key)
	status, body, err := c.do(ctx, http.MethodPut, path, valueEnvelope{Value: value})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return statusError(http.MethodPut, path, status, body)
	}
	return nil
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	path := storagePath(key)
	status, body, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return statusError(http.MethodDelete, path, status, body)
	}
	return nil
}

// Health is the body of GET /api/health.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(http.MethodGet, "/api/health", status, body)
	}
	var h Health
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, fmt.Errorf("kvclient: decode health: %w", err)
	}
	return &h, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
