// Package backend consumes the external graph service: the query API for
// bulk loads and centrality requests, the streamed delta feed, and a local
// snapshot file source for offline use.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"graphview/pkg/centrality"
	"graphview/pkg/model"
)

// Client is a consumer of the backend query API. It speaks the backend's
// protocol and exposes none of its own.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a query API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// LoadGraph bulk-loads a complete snapshot
func (c *Client) LoadGraph(ctx context.Context) (model.Graph, error) {
	var g model.Graph

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/graph", nil)
	if err != nil {
		return g, fmt.Errorf("failed to build graph request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return g, fmt.Errorf("graph load failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return g, fmt.Errorf("graph load failed: backend returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return g, fmt.Errorf("failed to decode graph snapshot: %w", err)
	}

	return g, nil
}

// centralityRequest is the query API's computation request shape
type centralityRequest struct {
	Algorithm string             `json:"algorithm"`
	Options   centrality.Options `json:"options"`
}

// RequestCentrality asks the backend to compute a centrality metric and
// returns node id -> score
func (c *Client) RequestCentrality(ctx context.Context, algorithm string, opts centrality.Options) (map[string]float64, error) {
	body, err := json.Marshal(centralityRequest{Algorithm: algorithm, Options: opts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode centrality request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/centrality", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build centrality request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("centrality request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("centrality request failed: backend returned %s", resp.Status)
	}

	var scores map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, fmt.Errorf("failed to decode centrality scores: %w", err)
	}
	return scores, nil
}

// FeedURL derives the delta feed URL from a query API base URL
func FeedURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/deltas"
}
