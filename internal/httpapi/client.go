package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the HTTP API of a running daemon.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for addr, either host:port or a base URL.
func NewClient(addr string) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Regions fetches the region snapshot.
func (c *Client) Regions(ctx context.Context) ([]RegionView, error) {
	var out []RegionView
	if err := c.do(ctx, http.MethodGet, "/api/v1/regions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Clear destroys every active item in group.
func (c *Client) Clear(ctx context.Context, group string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/notifications?group="+url.QueryEscape(group), nil)
}

// Dismiss closes the item with id.
func (c *Client) Dismiss(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/notifications/%d", id), nil)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, body.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
