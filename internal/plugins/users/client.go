package users

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client posts reader profiles to the upsert endpoint. The sign-in flow uses
// it after federated sign-in; the endpoint may be this server or a separate
// deployment.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

// NewClient creates a client for the endpoint at url. timeout bounds each
// call.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

// Upsert sends {name, email, photo}. Any non-2xx response is an error that
// includes the start of the response body.
func (c *Client) Upsert(ctx context.Context, req UpsertRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building upsert request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("posting profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("profile upsert returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
