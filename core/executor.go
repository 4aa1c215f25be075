package core

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Executor sends classified requests to the generation endpoints. There
// are two implementations: BlockingExecutor for plain callers and
// sched.Executor for callers running inside a scope. Both share the same
// wire logic; only session acquisition differs.
type Executor interface {
	// Do sends a buffered request and returns the complete response.
	Do(ctx context.Context, req *Request) (*Response, error)

	// Stream sends a streaming request and returns the open stream.
	// The caller owns the stream and must Close it.
	Stream(ctx context.Context, req *Request) (*Stream, error)
}

// SessionSource supplies the session for each attempt. Implementations
// may suspend on ctx.
type SessionSource interface {
	Acquire(ctx context.Context) (*Session, error)
}

// Response is a buffered endpoint response.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string

	// Ignored marks a tolerated payment-required response on an endpoint
	// the request declared payment-advisory. Body is empty.
	Ignored bool
}

// RequestExecutor holds the wire logic shared by both executor variants:
// header attachment, per-attempt tracing, status classification, and the
// retry loop, all over an injected SessionSource.
type RequestExecutor struct {
	source    SessionSource
	cfg       Config
	policy    RetryPolicy
	log       zerolog.Logger
	telemetry TelemetryHook
}

// NewRequestExecutor builds an executor over the given session source.
// A zero cfg.Retry means DefaultRetryPolicy.
func NewRequestExecutor(source SessionSource, cfg Config) *RequestExecutor {
	cfg = cfg.withDefaults()
	policy := DefaultRetryPolicy()
	if cfg.Retry != (RetryConfig{}) {
		policy = NewRetryPolicy(cfg.Retry)
	}
	return &RequestExecutor{
		source:    source,
		cfg:       cfg,
		policy:    policy,
		log:       cfg.Logger.With().Str("component", "executor").Logger(),
		telemetry: cfg.Telemetry,
	}
}

// Config returns the executor's resolved configuration.
func (e *RequestExecutor) Config() Config {
	return e.cfg
}

// Do sends a buffered request, retrying per policy. The correlation ID is
// assigned once and reused across attempts.
func (e *RequestExecutor) Do(ctx context.Context, req *Request) (*Response, error) {
	req.normalize()
	host, path := req.target()
	start := time.Now()
	e.telemetry.OnRequestStart(RequestStartEvent{
		Service:   req.Service,
		Method:    req.Method,
		Host:      host,
		Path:      path,
		RequestID: req.ID,
		Start:     start,
	})

	attempts := 0
	resp, err := Retry(ctx, e.policy, func(ctx context.Context) (*Response, error) {
		attempt := attempts
		attempts++
		return e.attemptBuffered(ctx, req, attempt)
	})

	status := 0
	if resp != nil {
		status = resp.Status
	} else {
		var classified *Error
		if errors.As(err, &classified) {
			status = classified.Status
		}
	}
	e.telemetry.OnRequestEnd(RequestEndEvent{
		Service:   req.Service,
		Method:    req.Method,
		Host:      host,
		Path:      path,
		RequestID: req.ID,
		Start:     start,
		End:       time.Now(),
		Status:    status,
		Attempts:  attempts,
		Err:       err,
	})
	return resp, err
}

// Stream sends a streaming request. Retries cover only the setup phase;
// once headers arrive with a good status the stream is handed to the
// caller and failures mid-stream surface on the stream itself.
func (e *RequestExecutor) Stream(ctx context.Context, req *Request) (*Stream, error) {
	req.Stream = true
	req.normalize()
	host, path := req.target()
	start := time.Now()
	e.telemetry.OnRequestStart(RequestStartEvent{
		Service:   req.Service,
		Method:    req.Method,
		Host:      host,
		Path:      path,
		RequestID: req.ID,
		Start:     start,
	})

	attempts := 0
	stream, err := Retry(ctx, e.policy, func(ctx context.Context) (*Stream, error) {
		attempt := attempts
		attempts++
		return e.attemptStream(ctx, req, attempt)
	})

	status := 0
	if err == nil {
		status = http.StatusOK
	} else {
		var classified *Error
		if errors.As(err, &classified) {
			status = classified.Status
		}
	}
	e.telemetry.OnRequestEnd(RequestEndEvent{
		Service:   req.Service,
		Method:    req.Method,
		Host:      host,
		Path:      path,
		RequestID: req.ID,
		Start:     start,
		End:       time.Now(),
		Status:    status,
		Attempts:  attempts,
		Err:       err,
	})
	return stream, err
}

// attemptBuffered runs a single buffered attempt under the per-request
// deadline.
func (e *RequestExecutor) attemptBuffered(ctx context.Context, req *Request, attempt int) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpResp, err := e.roundTrip(ctx, req, attempt)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, e.transferError(req, err)
	}

	if httpResp.StatusCode >= 400 {
		outcome := e.classify(req, httpResp, body)
		if outcome.Kind == OutcomeIgnored {
			return &Response{
				Status:    httpResp.StatusCode,
				Header:    httpResp.Header,
				RequestID: req.ID,
				Ignored:   true,
			}, nil
		}
		return nil, outcome.Err
	}

	return &Response{
		Status:    httpResp.StatusCode,
		Header:    httpResp.Header,
		Body:      body,
		RequestID: req.ID,
	}, nil
}

// attemptStream runs a single stream-setup attempt. No deadline wraps the
// context: it would kill the body mid-stream. The transport bounds dial
// and header waits, and the stream enforces its own idle watchdog.
func (e *RequestExecutor) attemptStream(ctx context.Context, req *Request, attempt int) (*Stream, error) {
	httpResp, err := e.roundTrip(ctx, req, attempt)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode >= 400 {
		body, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		outcome := e.classify(req, httpResp, body)
		if outcome.Kind == OutcomeIgnored {
			// Tolerated payment-required: an already-finished stream.
			return newClosedStream(), nil
		}
		return nil, outcome.Err
	}

	return newStream(httpResp.Body, req.Service, e.log), nil
}

// classify maps a non-2xx response through the error taxonomy, logging
// tolerated failures.
func (e *RequestExecutor) classify(req *Request, httpResp *http.Response, body []byte) Outcome {
	outcome := classifyStatus(
		req.Service,
		httpResp.StatusCode,
		body,
		req.ID,
		httpResp.Header.Get("Retry-After"),
		req.AdvisoryPayment,
	)
	if outcome.Kind == OutcomeIgnored {
		e.log.Debug().
			Str("service", req.Service).
			Str("request_id", req.ID).
			Int("status", httpResp.StatusCode).
			Msg("payment required ignored by request policy")
	}
	return outcome
}

// roundTrip acquires a session and performs one HTTP exchange.
func (e *RequestExecutor) roundTrip(ctx context.Context, req *Request, attempt int) (*http.Response, error) {
	session, err := e.source.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	httpReq, err := req.httpRequest(ctx, e.cfg.Token)
	if err != nil {
		return nil, err
	}

	host, path := req.target()
	e.log.Debug().
		Str("service", req.Service).
		Str("method", req.Method).
		Str("host", host).
		Str("path", path).
		Str("request_id", req.ID).
		Int("attempt", attempt).
		Msg("sending request")

	httpResp, err := session.Do(httpReq)
	if err != nil {
		return nil, e.transportError(req, err)
	}
	return httpResp, nil
}

// transportError classifies a failure that happened before any response
// arrived.
func (e *RequestExecutor) transportError(req *Request, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Service:    req.Service,
			RequestID:  req.ID,
			Message:    "request timed out",
			Suggestion: "Check your connection or increase timeout.",
			Err:        ErrTimeout,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{
			Service:    req.Service,
			RequestID:  req.ID,
			Message:    "request timed out: " + err.Error(),
			Suggestion: "Check your connection or increase timeout.",
			Err:        ErrTimeout,
		}
	}
	return &Error{
		Service:    req.Service,
		RequestID:  req.ID,
		Message:    "network error: " + err.Error(),
		Suggestion: "Check your internet connection.",
		Err:        ErrNetwork,
	}
}

// transferError classifies a failure while reading a response body the
// server had already started sending.
func (e *RequestExecutor) transferError(req *Request, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Service:    req.Service,
			RequestID:  req.ID,
			Message:    "request timed out",
			Suggestion: "Check your connection or increase timeout.",
			Err:        ErrTimeout,
		}
	}
	return &Error{
		Service:    req.Service,
		RequestID:  req.ID,
		Message:    "transfer interrupted: " + err.Error(),
		Suggestion: "The response was cut short; try again.",
		Err:        ErrTransfer,
	}
}

// BlockingExecutor is the executor for plain callers. It owns a lazily
// built SessionPool shared by every request made through it.
type BlockingExecutor struct {
	*RequestExecutor
	pool *SessionPool
}

// NewBlockingExecutor builds a blocking executor with its own session
// pool.
func NewBlockingExecutor(cfg Config) *BlockingExecutor {
	pool := NewSessionPool(DefaultSessionConfig())
	return &BlockingExecutor{
		RequestExecutor: NewRequestExecutor(poolSource{pool}, cfg),
		pool:            pool,
	}
}

// Close releases the executor's session pool. Idempotent.
func (e *BlockingExecutor) Close() error {
	e.pool.Close()
	return nil
}

// Pool exposes the underlying session pool.
func (e *BlockingExecutor) Pool() *SessionPool {
	return e.pool
}

// poolSource adapts the thread-confined SessionPool to SessionSource.
type poolSource struct {
	pool *SessionPool
}

func (s poolSource) Acquire(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.pool.Acquire()
}

// Compile-time checks.
var (
	_ Executor      = (*RequestExecutor)(nil)
	_ Executor      = (*BlockingExecutor)(nil)
	_ SessionSource = poolSource{}
)
