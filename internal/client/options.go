package client

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithToken sends token as the bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) error {
		if token != "" {
			c.rest.SetAuthToken(token)
		}
		return nil
	}
}

// WithHTTPTimeout bounds a single HTTP attempt. Retries are bounded separately.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.rest.SetTimeout(d)
		return nil
	}
}

// WithRetries sets the retry policy for recoverable failures. maxRetries 0
// disables retries.
func WithRetries(maxRetries uint64, initial, maxInterval time.Duration) Option {
	return func(c *Client) error {
		if initial <= 0 || maxInterval < initial {
			return fmt.Errorf("invalid backoff: initial=%v max=%v", initial, maxInterval)
		}
		c.maxRetries = maxRetries
		c.initialBackoff = initial
		c.maxBackoff = maxInterval
		return nil
	}
}

// WithDeviceID sends the device cookie so /api/local calls hit the same store.
func WithDeviceID(id string) Option {
	return func(c *Client) error {
		if id != "" {
			c.rest.SetHeader("Cookie", deviceCookie+"="+id)
		}
		return nil
	}
}

// WithLogger logs retries and fallbacks.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// WithDebugLogging logs every request and response at debug level.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debug = enabled
		return nil
	}
}
