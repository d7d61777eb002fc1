// Package request provides the HTTP client used to talk to the notebook
// backend. Failures are split into transport errors (unreachable) and
// StatusError (non-2xx reply); no retries are performed, the user re-triggers
// generation manually.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"notecast/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("notecast/%s", version.Version)

// Result is a successful response body plus the headers needed to
// discriminate its shape.
type Result struct {
	Body        []byte
	ContentType string
	Header      http.Header
}

// StatusError is a non-2xx response. Body is kept raw so callers can extract
// a structured message from it.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: status %d", e.Status)
}

// Client performs JSON POST requests against the backend.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// New creates a Client with the given request timeout. A zero timeout leaves
// the transport default in place.
func New(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
	}
}

// PostJSON marshals payload and POSTs it to u with the given extra headers.
func (c *Client) PostJSON(ctx context.Context, u string, payload any, headers map[string]string) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	if resp.StatusCode >= 400 {
		slog.Warn("API error", "status", resp.StatusCode, "url", req.URL)
		return nil, &StatusError{Status: resp.StatusCode, Body: data}
	}

	return &Result{
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
	}, nil
}
