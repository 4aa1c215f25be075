package core

import "time"

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics, tracing, etc.
//
// # Security Considerations
//
// Event types are designed to NEVER include sensitive data:
//   - API tokens are NEVER included (stored separately as core.Secret)
//   - Prompt content is NEVER included, and Path is stripped of its query
//     string before the event is built
//   - Response payloads (generated images, text, audio) are NEVER included
//   - Only operational metadata is exposed (service, timing, status, attempts)
//
// This design ensures that telemetry data can be safely:
//   - Logged to disk without risk of credential exposure
//   - Sent to external monitoring systems
//   - Aggregated for analytics
//   - Stored long-term for debugging
//
// If extending this interface, maintain these security properties.
// Never add fields that could contain: API tokens, prompts, generated
// content, or full request URLs.
type TelemetryHook interface {
	// OnRequestStart is called when a request begins, before the first
	// attempt is sent.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called when a request completes, after the last
	// attempt finishes.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
//
// # Security
//
// This struct intentionally excludes:
//   - API tokens (never logged)
//   - Query strings (prompts travel there on GET endpoints)
//   - Request headers (Authorization carries the token)
//
// Only operational metadata suitable for logging is included.
type RequestStartEvent struct {
	Service   string    // endpoint family: "image", "text", "audio"
	Method    string    // HTTP method
	Host      string    // endpoint host
	Path      string    // URL path with the query string removed
	RequestID string    // correlation ID sent with the request
	Start     time.Time // when the request started
}

// RequestEndEvent contains metadata about a completed request.
//
// # Security
//
// This struct intentionally excludes:
//   - API tokens (never logged)
//   - Response payloads (may be large or sensitive)
//   - Raw HTTP response data
type RequestEndEvent struct {
	Service   string    // endpoint family
	Method    string    // HTTP method
	Host      string    // endpoint host
	Path      string    // URL path with the query string removed
	RequestID string    // correlation ID sent with the request
	Start     time.Time // when the request started
	End       time.Time // when the request completed
	Status    int       // final HTTP status, 0 if no response arrived
	Attempts  int       // total attempts made, including the first
	Err       error     // error if the request failed, nil on success
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
// Use this as a default when no telemetry is configured.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

// Compile-time check that NoopTelemetryHook implements TelemetryHook.
var _ TelemetryHook = NoopTelemetryHook{}
