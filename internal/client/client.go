// Package client talks to a running mindline daemon over its HTTP API.
// CLI commands use it when a query should see the daemon's serialized
// view instead of opening the database file directly.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/lazypower/mindline/internal/engine"
)

const (
	defaultBaseURL = "http://127.0.0.1:7433"
	httpTimeout    = 5 * time.Second
)

// Client talks to the mindline daemon.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a daemon client. An empty baseURL falls back to the
// MINDLINE_URL env var, then to http://127.0.0.1:7433.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("MINDLINE_URL")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		baseURL: baseURL,
	}
}

// get sends a GET request and decodes the JSON response into out.
func (c *Client) get(path string, out any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, data)
	}
	return json.Unmarshal(data, out)
}

// Healthy reports whether a daemon answers on the base URL.
func (c *Client) Healthy() bool {
	resp, err := c.http.Get(c.baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// HealthInfo is the daemon's health document.
type HealthInfo struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime"`
	DBPath  string  `json:"db_path"`
}

// Health fetches the daemon's health document.
func (c *Client) Health() (HealthInfo, error) {
	var info HealthInfo
	if err := c.get("/api/health", &info); err != nil {
		return HealthInfo{}, err
	}
	return info, nil
}

// State queries an entity's computed state. A zero at means now.
func (c *Client) State(entityID string, at time.Time) (engine.Result, error) {
	path := "/api/entities/" + url.PathEscape(entityID) + "/state"
	if !at.IsZero() {
		path += "?at=" + url.QueryEscape(at.UTC().Format(time.RFC3339))
	}
	var r engine.Result
	if err := c.get(path, &r); err != nil {
		return engine.Result{}, err
	}
	return r, nil
}
