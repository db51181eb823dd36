package history

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Client provides access to the historical market-data REST API.
type Client struct {
	mu    sync.Mutex
	bases []string // candidate base URLs, index 0 tried first

	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		bases: []string{baseURL},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithFallbackURLs appends alternate base URLs tried when the primary
// is unreachable. A URL that answers is promoted to the front.
func WithFallbackURLs(urls ...string) ClientOption {
	return func(c *Client) {
		c.bases = append(c.bases, urls...)
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// candidates returns a snapshot of the base URL order.
func (c *Client) candidates() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.bases))
	copy(out, c.bases)
	return out
}

// promote moves a base URL that answered to the front of the list.
func (c *Client) promote(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, b := range c.bases {
		if b == base {
			if i > 0 {
				copy(c.bases[1:i+1], c.bases[:i])
				c.bases[0] = base
				c.logger.Debug("promoted history endpoint", "url", base)
			}
			return
		}
	}
}
