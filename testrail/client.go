package testrail

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

// Client represents a TestRail API client
type Client struct {
	baseURL        string
	username       string
	apiKey         string
	httpClient     *http.Client
	timeout        time.Duration
	maxConcurrency int
	logger         zerolog.Logger

	priorities memo[[]Priority]
	caseTypes  memo[[]CaseType]
	caseFields memo[[]CaseField]
	statuses   memo[[]Status]
	projects   memo[[]Project]
	templates  keyedMemo[int, []Template]
}

var _ API = (*Client)(nil)

// NewClient creates a new TestRail client. No request is made until the
// first call.
func NewClient(baseURL, username, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: testrail URL is required", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		username:       username,
		apiKey:         apiKey,
		httpClient:     cleanhttp.DefaultPooledClient(),
		maxConcurrency: DefaultMaxConcurrency,
		logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}

	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TestConnection verifies credentials by listing projects. The result is not
// cached so a failed check does not poison the projects slot.
func (c *Client) TestConnection(ctx context.Context) error {
	if _, err := fetchAll[Project](ctx, c, apiPath("get_projects"), "projects"); err != nil {
		return fmt.Errorf("failed to connect to TestRail: %w", err)
	}
	return nil
}
