package results

import (
	"net/http"
	"time"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithToken sets the X-Auth-Token credential.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithWindowDays sets how many days either side of the target day the API
// is queried for. Same-day queries miss matches, so the window never drops
// below one day.
func WithWindowDays(days int) Option {
	return func(c *Client) {
		if days >= 1 {
			c.windowDays = days
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}
