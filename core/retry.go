package core

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// statusWebServerDown is Cloudflare's non-standard "origin returned an
// unknown error" status, common enough at the edge to treat as transient.
const statusWebServerDown = 520

// RetryPolicy determines retry behavior for failed requests.
type RetryPolicy interface {
	// Decide returns the delay before the next attempt and whether to
	// retry at all. attempt is zero-based: 0 means the first try just
	// failed. If retry is false the caller must return the error as-is.
	Decide(attempt int, err error) (delay time.Duration, retry bool)
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts   int           // Total attempts including the first (default: 3)
	HTTPCap       time.Duration // Backoff ceiling for status-based retries (default: 32s)
	TransferCap   time.Duration // Backoff ceiling for transfer retries (default: 16s)
	RateLimitWait time.Duration // Wait when a rate limit carries no usable hint (default: 60s)
	Jitter        float64       // Scale of the random backoff component, 0.0-1.0 (default: 1.0)
}

// DefaultRetryPolicy returns a retry policy with the service defaults:
// 3 total attempts, full jitter, 32s/16s backoff ceilings.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(RetryConfig{
		MaxAttempts:   MaxAttempts,
		HTTPCap:       32 * time.Second,
		TransferCap:   16 * time.Second,
		RateLimitWait: defaultRetryAfter,
		Jitter:        1.0,
	})
}

// NewRetryPolicy creates a retry policy with the given configuration.
// Setting Jitter to 0 makes delays deterministic.
func NewRetryPolicy(cfg RetryConfig) RetryPolicy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = MaxAttempts
	}
	if cfg.HTTPCap <= 0 {
		cfg.HTTPCap = 32 * time.Second
	}
	if cfg.TransferCap <= 0 {
		cfg.TransferCap = 16 * time.Second
	}
	if cfg.RateLimitWait <= 0 {
		cfg.RateLimitWait = defaultRetryAfter
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = 1.0
	}
	return &backoffPolicy{cfg: cfg}
}

type backoffPolicy struct {
	cfg RetryConfig
}

func (p *backoffPolicy) Decide(attempt int, err error) (time.Duration, bool) {
	// The first try counts against MaxAttempts, so with 3 attempts only
	// failures 0 and 1 are retried.
	if attempt >= p.cfg.MaxAttempts-1 {
		return 0, false
	}

	switch {
	case err == nil:
		return 0, false

	// Context cancellation and deadlines are the caller's decision.
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return 0, false

	case errors.Is(err, ErrRateLimited):
		// The server said how long to wait; the exponential schedule
		// does not apply.
		if hint, ok := RetryAfterHint(err); ok {
			return hint, true
		}
		return p.cfg.RateLimitWait, true

	case errors.Is(err, ErrTransfer):
		return p.backoff(attempt, p.cfg.TransferCap), true

	case errors.Is(err, ErrServer):
		var e *Error
		if errors.As(err, &e) && retryableStatus(e.Status) {
			return p.backoff(attempt, p.cfg.HTTPCap), true
		}
		return 0, false

	default:
		// Authentication, payment, validation, timeouts, and anything
		// unclassified terminate immediately.
		return 0, false
	}
}

// backoff computes wait = min(2^attempt + jitter*uniform(0,1), limit) in
// seconds.
func (p *backoffPolicy) backoff(attempt int, limit time.Duration) time.Duration {
	wait := math.Pow(2, float64(attempt)) + p.cfg.Jitter*rand.Float64()
	delay := time.Duration(wait * float64(time.Second))
	if delay > limit {
		delay = limit
	}
	return delay
}

// retryableStatus reports whether an HTTP status is worth another attempt.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		statusWebServerDown:
		return true
	}
	return false
}

// Retry runs fn until it succeeds, the policy declines, or ctx ends.
// attempt is zero-based and increments only when a failure is retried.
// On exhaustion the last error is returned unchanged so callers can
// inspect the true terminal cause with errors.Is and errors.As.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		delay, retry := policy.Decide(attempt, err)
		if !retry {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}
