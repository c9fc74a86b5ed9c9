package client

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/job"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. to add a custom
// transport or TLS configuration.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithTimeout sets the per-request timeout. Ignored when WithHTTPClient is
// also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// QueryOption filters a list or count request.
type QueryOption func(url.Values)

// WithJobType restricts results to one job type.
func WithJobType(t job.Type) QueryOption {
	return func(q url.Values) { q.Set("job_type", string(t)) }
}

// WithSeverity restricts results to one severity.
func WithSeverity(s dlq.Severity) QueryOption {
	return func(q url.Values) { q.Set("severity", string(s)) }
}

// WithLimit caps the number of entries returned.
func WithLimit(n int) QueryOption {
	return func(q url.Values) { q.Set("limit", strconv.Itoa(n)) }
}

// WithOffset skips the first n entries.
func WithOffset(n int) QueryOption {
	return func(q url.Values) { q.Set("offset", strconv.Itoa(n)) }
}
