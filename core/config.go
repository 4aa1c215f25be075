package core

import (
	"time"

	"github.com/rs/zerolog"
)

// Version is the SDK version reported in the User-Agent header.
const Version = "0.1.0"

// UserAgent identifies the SDK on the wire.
const UserAgent = "bloom-go/" + Version

// Service endpoint bases. Audio shares the text host.
const (
	ImageBaseURL = "https://image.pollinations.ai"
	TextBaseURL  = "https://text.pollinations.ai"
	AudioBaseURL = TextBaseURL
)

// Request limits enforced before any wire call.
const (
	// MaxImagePromptLength is the longest prompt the image endpoint accepts.
	MaxImagePromptLength = 200

	// MaxTextPromptLength is the longest prompt the text endpoints accept.
	MaxTextPromptLength = 10000
)

// Timeouts and retry bounds.
const (
	// DefaultTimeout bounds a whole buffered request.
	DefaultTimeout = 30 * time.Second

	// ConnectTimeout bounds establishing a new connection.
	ConnectTimeout = 10 * time.Second

	// ReadTimeout bounds waiting for response headers, and for streams,
	// the gap between consecutive chunks.
	ReadTimeout = 30 * time.Second

	// MaxAttempts is the total number of tries for a retryable request.
	MaxAttempts = 3

	// defaultRetryAfter is the rate-limit wait used when the server sends
	// no usable Retry-After header.
	defaultRetryAfter = 60 * time.Second
)

// Generation defaults applied when a request leaves a field unset.
const (
	DefaultImageModel  = "flux"
	DefaultTextModel   = "openai"
	DefaultAudioModel  = "openai-audio"
	DefaultVoice       = "alloy"
	DefaultImageWidth  = 1024
	DefaultImageHeight = 1024
)

// DefaultTemperature is the sampling temperature used when unset.
const DefaultTemperature = 1.0

// Config holds the shared client configuration consumed by executors and
// session pools.
type Config struct {
	// Token is the API token. Empty means anonymous access.
	Token Secret

	// ImageBaseURL overrides the image endpoint. Defaults to ImageBaseURL.
	ImageBaseURL string

	// TextBaseURL overrides the text endpoint. Defaults to TextBaseURL.
	TextBaseURL string

	// AudioBaseURL overrides the audio endpoint. Defaults to AudioBaseURL.
	AudioBaseURL string

	// Timeout bounds each buffered request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Retry controls the retry schedule. Zero values take defaults.
	Retry RetryConfig

	// Logger receives diagnostic events. The zero value discards them.
	Logger zerolog.Logger

	// Telemetry observes request lifecycles. Defaults to NoopTelemetryHook.
	Telemetry TelemetryHook
}

// withDefaults fills unset fields. The original Config is not modified.
func (c Config) withDefaults() Config {
	if c.ImageBaseURL == "" {
		c.ImageBaseURL = ImageBaseURL
	}
	if c.TextBaseURL == "" {
		c.TextBaseURL = TextBaseURL
	}
	if c.AudioBaseURL == "" {
		c.AudioBaseURL = AudioBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Telemetry == nil {
		c.Telemetry = NoopTelemetryHook{}
	}
	return c
}

// BaseURL returns the endpoint base for a service name.
func (c Config) BaseURL(service string) string {
	switch service {
	case "image":
		return c.ImageBaseURL
	case "audio":
		return c.AudioBaseURL
	default:
		return c.TextBaseURL
	}
}
