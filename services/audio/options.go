package audio

import (
	"time"

	"github.com/petal-labs/bloom/core"
)

// Config holds configuration for the audio client.
type Config struct {
	// BaseURL is the audio endpoint. Audio is served by the text host;
	// defaults to core.AudioBaseURL.
	BaseURL string

	// Timeout bounds each request. Defaults to core.DefaultTimeout.
	Timeout time.Duration

	// AdvisoryPayment makes payment-required responses report Ignored
	// results instead of failing. Off by default for audio.
	AdvisoryPayment bool
}

// Option configures the audio client.
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
		BaseURL: core.AudioBaseURL,
		Timeout: core.DefaultTimeout,
	}
}
