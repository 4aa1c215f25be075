package core

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Request describes one logical call to a generation endpoint. Executors
// may send it several times under the retry policy; the correlation ID
// stays constant across attempts.
type Request struct {
	// Service is the endpoint family: "image", "text", or "audio".
	// Carried into errors, logs, and telemetry.
	Service string

	// Method is the HTTP method.
	Method string

	// URL is the full request URL including the query string. The API
	// token never appears here; it travels in the Authorization header.
	URL string

	// Body is the payload for POST requests, nil for GET.
	Body []byte

	// ContentType is sent when Body is present.
	ContentType string

	// Timeout bounds the whole request for buffered calls. For streaming
	// calls it bounds only the request and response-header phase.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// Stream marks the response as incremental. The executor leaves the
	// body open and hands it to a decoder.
	Stream bool

	// AdvisoryPayment makes a 402 response report an Ignored outcome
	// instead of failing. Set for endpoints that work without a paid
	// tier.
	AdvisoryPayment bool

	// ID is the correlation ID sent as X-Request-ID. Executors assign a
	// fresh UUID when empty.
	ID string
}

// normalize fills defaults before the first attempt.
func (r *Request) normalize() {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timeout <= 0 {
		r.Timeout = DefaultTimeout
	}
}

// httpRequest builds the wire request for one attempt. The token goes
// into the Authorization header, never the URL.
func (r *Request) httpRequest(ctx context.Context, token Secret) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, &Error{
			Service:    r.Service,
			Message:    "invalid request: " + err.Error(),
			Suggestion: "Check the request URL and parameters.",
			Err:        ErrValidation,
		}
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Request-ID", r.ID)
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if r.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if !token.IsEmpty() {
		req.Header.Set("Authorization", "Bearer "+token.Expose())
	}
	return req, nil
}

// target returns the host and query-stripped path for logs and telemetry.
// Prompts travel in query strings on the GET endpoints, so the query is
// never reported.
func (r *Request) target() (host, path string) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", ""
	}
	return u.Host, u.Path
}
