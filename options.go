package bloom

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/petal-labs/bloom/core"
	"github.com/petal-labs/bloom/services/audio"
	"github.com/petal-labs/bloom/services/image"
	"github.com/petal-labs/bloom/services/text"
)

// Config holds configuration for the Client.
type Config struct {
	// Token is the API token. Empty means anonymous access.
	Token core.Secret

	// ImageBaseURL, TextBaseURL, and AudioBaseURL override the service
	// endpoints. Defaults come from the core package.
	ImageBaseURL string
	TextBaseURL  string
	AudioBaseURL string

	// Timeout bounds each buffered request. Defaults to
	// core.DefaultTimeout.
	Timeout time.Duration

	// Retry controls the retry schedule. Zero means the default policy.
	Retry core.RetryConfig

	// Logger receives diagnostic events. The zero value discards them.
	Logger zerolog.Logger

	// Telemetry observes request lifecycles. Defaults to
	// core.NoopTelemetryHook.
	Telemetry core.TelemetryHook

	// CacheTTL bounds how long model inventories are cached. Defaults to
	// DefaultCacheTTL.
	CacheTTL time.Duration

	imageOpts []image.Option
	textOpts  []text.Option
	audioOpts []audio.Option
}

// Option configures the Client.
type Option func(*Config)

// WithToken sets the API token.
func WithToken(token string) Option {
	return func(c *Config) {
		c.Token = core.NewSecret(token)
	}
}

// WithImageBaseURL overrides the image endpoint.
func WithImageBaseURL(u string) Option {
	return func(c *Config) {
		c.ImageBaseURL = u
	}
}

// WithTextBaseURL overrides the text endpoint.
func WithTextBaseURL(u string) Option {
	return func(c *Config) {
		c.TextBaseURL = u
	}
}

// WithAudioBaseURL overrides the audio endpoint.
func WithAudioBaseURL(u string) Option {
	return func(c *Config) {
		c.AudioBaseURL = u
	}
}

// WithBaseURL points every service at one host. Intended for tests and
// proxies.
func WithBaseURL(u string) Option {
	return func(c *Config) {
		c.ImageBaseURL = u
		c.TextBaseURL = u
		c.AudioBaseURL = u
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithRetryConfig sets the retry schedule.
func WithRetryConfig(cfg core.RetryConfig) Option {
	return func(c *Config) {
		c.Retry = cfg
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithTelemetry attaches a telemetry hook.
func WithTelemetry(hook core.TelemetryHook) Option {
	return func(c *Config) {
		c.Telemetry = hook
	}
}

// WithCacheTTL sets the model inventory cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.CacheTTL = ttl
	}
}

// WithImageOptions passes options through to the image client.
func WithImageOptions(opts ...image.Option) Option {
	return func(c *Config) {
		c.imageOpts = append(c.imageOpts, opts...)
	}
}

// WithTextOptions passes options through to the text client.
func WithTextOptions(opts ...text.Option) Option {
	return func(c *Config) {
		c.textOpts = append(c.textOpts, opts...)
	}
}

// WithAudioOptions passes options through to the audio client.
func WithAudioOptions(opts ...audio.Option) Option {
	return func(c *Config) {
		c.audioOpts = append(c.audioOpts, opts...)
	}
}
