package text

import (
	"time"

	"github.com/petal-labs/bloom/core"
)

// Config holds configuration for the text client.
type Config struct {
	// BaseURL is the text endpoint. Defaults to core.TextBaseURL.
	BaseURL string

	// Timeout bounds each buffered request. Defaults to
	// core.DefaultTimeout.
	Timeout time.Duration

	// AdvisoryPayment makes payment-required responses report Ignored
	// results instead of failing. On by default: the text endpoints
	// serve anonymous traffic and answer 402 for tier limits rather
	// than missing credentials.
	AdvisoryPayment bool
}

// Option configures the text client.
type Option func(*Config)

// WithBaseURL sets the endpoint base URL.
func WithBaseURL(u string) Option {
	return func(c *Config) {
		c.BaseURL = u
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithAdvisoryPayment sets the payment-required tolerance.
func WithAdvisoryPayment(on bool) Option {
	return func(c *Config) {
		c.AdvisoryPayment = on
	}
}

func defaultConfig() Config {
	return Config{
		BaseURL:         core.TextBaseURL,
		Timeout:         core.DefaultTimeout,
		AdvisoryPayment: true,
	}
}
