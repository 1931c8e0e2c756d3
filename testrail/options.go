package testrail

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxConcurrency bounds the per-section case fetches of
// GetCasesRecursively.
const DefaultMaxConcurrency = 8

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default pooled HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets an overall timeout on every request. Zero means none.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger used for request and cache diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMaxConcurrency bounds concurrent section fetches. Values <= 0 remove
// the bound.
func WithMaxConcurrency(n int) Option {
	return func(c *Client) {
		c.maxConcurrency = n
	}
}
