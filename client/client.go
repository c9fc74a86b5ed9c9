// Package client provides a Go client for a remote Vigil instance over its
// HTTP API.
//
// Usage:
//
//	c := client.New("http://vigil.internal:8080")
//
//	// Route a failed job into the dead letter collection.
//	res, err := c.RouteDeadLetter(ctx, dlq.RouteRequest{
//	    JobID:   "job-42",
//	    JobType: "single_transcribe",
//	    Failure: dlq.FailureContext{
//	        ErrorType:    "timeout",
//	        ErrorMessage: "no progress after 3 attempts",
//	        RetryCount:   3,
//	    },
//	})
//
//	// Sweep for stuck records now.
//	result, err := c.StartScan(ctx, api.ScanRequest{EscalateCritical: true})
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to a remote Vigil server.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// New creates a client for the Vigil server at baseURL, e.g.
// "http://localhost:8080". No connection is made until the first call.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health reports whether the server is up and its store is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// APIError is a non-2xx response from the server. Code is the machine
// readable error code from the response body, e.g. "not_found".
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vigil/client: server returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// do sends one request and decodes the JSON response into out. A nil in
// sends no body; a nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("vigil/client: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("vigil/client: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("vigil/client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("vigil api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("vigil/client: decode response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.NewDecoder(resp.Body).Decode(&body) == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	}
	return apiErr
}

// query renders opts as a query string, including the leading "?" when any
// parameter is set.
func query(opts []QueryOption) string {
	q := url.Values{}
	for _, opt := range opts {
		opt(q)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
