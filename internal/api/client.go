// Package api is the HTTP client for the inventory server. Reads retry and
// honor context cancellation; mutations are single-shot because the server
// does not promise idempotent writes.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

const DefaultRetries = 1

// ErrUnauthorized signals that the server rejected the session. Callers treat
// it as "log in again", not as a transient failure.
var ErrUnauthorized = errors.New("unauthorized")

// MutationError carries the server-side rejection message for a write.
type MutationError struct {
	Message string
}

func (e *MutationError) Error() string {
	if e.Message == "" {
		return "the server rejected the change"
	}
	return e.Message
}

// Item is a raw inventory record as the server returns it. The server
// partitions items into fresh and expired; the client never re-derives that
// split.
type Item struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	ExpiryDate string `json:"expiry_date"`
}

type Category struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Inventory struct {
	Fresh   []Item `json:"fresh"`
	Expired []Item `json:"expired"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
}

func NewClient(baseURL string, retries int) *Client {
	if retries < 0 {
		retries = DefaultRetries
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retries:    retries,
	}
}

func (c *Client) FetchInventory(ctx context.Context) (Inventory, error) {
	var inv Inventory
	err := c.getJSON(ctx, "/api/inventory", &inv)
	return inv, err
}

func (c *Client) FetchCategories(ctx context.Context) ([]Category, error) {
	var body struct {
		Categories []Category `json:"categories"`
	}
	if err := c.getJSON(ctx, "/api/categories", &body); err != nil {
		return nil, err
	}
	return body.Categories, nil
}

func (c *Client) AddItem(ctx context.Context, name, expiryDate, category string) error {
	payload := map[string]any{
		"name":        name,
		"expiry_date": expiryDate,
		"category":    category,
	}
	return c.postJSON(ctx, "/api/add_item", payload)
}

func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.postJSON(ctx, "/api/delete_item", map[string]any{"id": id})
}

func (c *Client) AddCategory(ctx context.Context, name string) error {
	return c.postJSON(ctx, "/api/add_category", map[string]any{"name": name})
}

func (c *Client) DeleteCategory(ctx context.Context, name string) error {
	return c.postJSON(ctx, "/api/delete_category", map[string]any{"name": name})
}

// getJSON performs a read with up to c.retries re-attempts. A 401 aborts
// immediately with ErrUnauthorized and cancellation aborts with the context's
// error; neither counts as a retryable failure.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			lastErr = err
			continue
		}
		func() {
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusUnauthorized {
				lastErr = ErrUnauthorized
				return
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				lastErr = fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
				return
			}
			lastErr = json.NewDecoder(resp.Body).Decode(out)
		}()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrUnauthorized) {
			return ErrUnauthorized
		}
	}
	return lastErr
}

// postJSON performs a single mutation attempt. Non-2xx responses surface the
// server's error message when the body carries one.
func (c *Client) postJSON(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &MutationError{}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var serverErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &serverErr); err == nil && serverErr.Error != "" {
			return &MutationError{Message: serverErr.Error}
		}
		return &MutationError{}
	}
	return nil
}
