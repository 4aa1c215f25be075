package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Sentinel errors for classification. Every error produced by an executor
// wraps exactly one of these, so callers can branch with errors.Is.
var (
	// ErrNetwork marks connection-level failures: dial errors, DNS
	// failures, resets before any response arrived.
	ErrNetwork = errors.New("network error")

	// ErrTransfer marks an interrupted response body: the server answered
	// but the payload was cut short. Retryable with a tighter backoff cap
	// than status-based retries.
	ErrTransfer = errors.New("transfer interrupted")

	// ErrAuthentication is a 401. Always terminal.
	ErrAuthentication = errors.New("authentication failed")

	// ErrPaymentRequired is a 402. Terminal unless the request marks the
	// endpoint as payment-advisory, in which case classification reports
	// an Ignored outcome instead of failing.
	ErrPaymentRequired = errors.New("payment required")

	// ErrRateLimited is a 429. Retried using the server's Retry-After
	// hint rather than the exponential schedule.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer covers 5xx responses. Only {502, 503, 504, 520} are
	// retryable; other server statuses are terminal.
	ErrServer = errors.New("server error")

	// ErrTimeout marks an exceeded request deadline. Terminal: repeated
	// timeouts usually mean an outage, not a blip.
	ErrTimeout = errors.New("request timed out")

	// ErrStream marks a broken incremental response at the source level.
	// Per-frame parse failures are skipped, not raised.
	ErrStream = errors.New("stream error")

	// ErrValidation marks a caller-supplied argument violating a
	// constraint. Raised before any wire call, never retried.
	ErrValidation = errors.New("invalid parameter")

	// ErrDecode marks an unparseable buffered response body.
	ErrDecode = errors.New("decode error")

	// ErrPoolClosed is returned by Acquire after a pool has been closed.
	ErrPoolClosed = errors.New("session pool closed")

	// ErrInvalidInvocationContext is returned when a blocking entry point
	// is invoked from inside an active scope, where blocking would starve
	// the scope. Use the Async variant of the operation instead.
	ErrInvalidInvocationContext = errors.New("blocking call inside an active scope")
)

// Error is a classified request failure with full context. The wrapped
// sentinel (Err) is the machine-readable kind; Suggestion is advisory text
// for humans and must never be pattern-matched.
type Error struct {
	Service    string         // endpoint family: "image", "text", "audio"
	Status     int            // HTTP status, 0 for transport failures
	RequestID  string         // correlation ID sent with the request
	Message    string         // server-provided or synthesized description
	Suggestion string         // human-readable remediation hint
	RetryAfter *time.Duration // server wait hint, set on rate limits
	Err        error          // sentinel kind
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (status=%d, request_id=%s)",
			e.Service, e.Message, e.Status, e.RequestID)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status=%d)", e.Service, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

// Unwrap returns the sentinel kind for error chaining.
func (e *Error) Unwrap() error {
	return e.Err
}

// RetryAfterHint extracts the server-provided wait hint from a rate-limit
// error. ok is false when err carries no hint.
func RetryAfterHint(err error) (time.Duration, bool) {
	var e *Error
	if errors.As(err, &e) && e.RetryAfter != nil {
		return *e.RetryAfter, true
	}
	return 0, false
}

// SuggestionOf returns the remediation hint attached to err, or "".
func SuggestionOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Suggestion
	}
	return ""
}

// NewValidationError builds a terminal parameter error. Validation errors
// are raised before any wire call and never reach the retry policy.
func NewValidationError(service, message, suggestion string) *Error {
	return &Error{
		Service:    service,
		Message:    message,
		Suggestion: suggestion,
		Err:        ErrValidation,
	}
}

// errorEnvelope covers both error body shapes the service produces:
// {"error":"..."} on the legacy endpoints and {"error":{"message":"..."}}
// on the OpenAI-compatible one.
type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

// extractErrorMessage pulls a human-readable message out of an error
// response body, falling back to the HTTP status text.
func extractErrorMessage(status int, body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Error) > 0 {
		var s string
		if json.Unmarshal(env.Error, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(env.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return http.StatusText(status)
}

// parseRetryAfter reads a Retry-After header value as integer seconds.
// Absent or unparseable values default to 60 seconds.
func parseRetryAfter(header string) time.Duration {
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultRetryAfter
}

// classifyStatus maps a non-2xx response to the error taxonomy. The
// advisory flag governs the 402 branch: advisory endpoints report Ignored
// instead of failing.
func classifyStatus(service string, status int, body []byte, requestID, retryAfterHeader string, advisory bool) Outcome {
	message := extractErrorMessage(status, body)

	switch {
	case status == http.StatusUnauthorized:
		return Failed(&Error{
			Service:    service,
			Status:     status,
			RequestID:  requestID,
			Message:    message,
			Suggestion: "Check your API token.",
			Err:        ErrAuthentication,
		})

	case status == http.StatusPaymentRequired:
		if advisory {
			return Ignored()
		}
		return Failed(&Error{
			Service:    service,
			Status:     status,
			RequestID:  requestID,
			Message:    "Payment Required: " + message,
			Suggestion: "Visit https://auth.pollinations.ai to upgrade or check your API token.",
			Err:        ErrPaymentRequired,
		})

	case status == http.StatusTooManyRequests:
		hint := parseRetryAfter(retryAfterHeader)
		return Failed(&Error{
			Service:    service,
			Status:     status,
			RequestID:  requestID,
			Message:    "rate limit exceeded",
			Suggestion: fmt.Sprintf("Wait %s before retrying.", hint),
			RetryAfter: &hint,
			Err:        ErrRateLimited,
		})

	case status == http.StatusBadRequest:
		return Failed(&Error{
			Service:    service,
			Status:     status,
			RequestID:  requestID,
			Message:    message,
			Suggestion: "Check the request parameters.",
			Err:        ErrValidation,
		})

	case status >= 500:
		return Failed(&Error{
			Service:    service,
			Status:     status,
			RequestID:  requestID,
			Message:    message,
			Suggestion: "The service is having trouble; try again shortly.",
			Err:        ErrServer,
		})

	default:
		return Failed(&Error{
			Service:    service,
			Status:     status,
			RequestID:  requestID,
			Message:    message,
			Suggestion: "Check the request parameters.",
			Err:        ErrValidation,
		})
	}
}
