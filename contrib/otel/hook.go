// Package otelbloom bridges bloom request telemetry to OpenTelemetry.
//
// TracingHook implements core.TelemetryHook and emits one client span per
// logical request. A request that is retried internally still produces a
// single span covering every attempt, with the attempt count recorded as an
// attribute.
//
// Attach the hook when constructing a client:
//
//	hook := otelbloom.New()
//	client, err := bloom.New(token, bloom.WithTelemetry(hook))
//
// Span attributes carry only routing metadata (service, method, host, path,
// request ID). Prompts, generated content, and query strings never reach the
// trace pipeline.
package otelbloom

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/bloom/core"
)

// tracerName identifies this instrumentation library in exported spans.
const tracerName = "github.com/petal-labs/bloom/contrib/otel"

// TracingHook converts telemetry events into OpenTelemetry spans.
//
// The zero value is not usable; construct with New. A single hook is safe
// for concurrent use and may be shared across clients.
type TracingHook struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

var _ core.TelemetryHook = (*TracingHook)(nil)

// Option configures a TracingHook.
type Option func(*config)

type config struct {
	provider trace.TracerProvider
}

// WithTracerProvider sets the provider used to create the hook's tracer.
// When unset, New uses the global provider registered with otel.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		if tp != nil {
			c.provider = tp
		}
	}
}

// New returns a TracingHook ready to attach to a client.
func New(opts ...Option) *TracingHook {
	cfg := config{provider: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TracingHook{
		tracer: cfg.provider.Tracer(tracerName),
		spans:  make(map[string]trace.Span),
	}
}

// OnRequestStart opens a client span for the request. The span start time is
// the event time, not the time this method runs.
func (h *TracingHook) OnRequestStart(e core.RequestStartEvent) {
	_, span := h.tracer.Start(context.Background(), e.Service+" "+e.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
		trace.WithAttributes(
			attribute.String("bloom.service", e.Service),
			attribute.String("http.request.method", e.Method),
			attribute.String("server.address", e.Host),
			attribute.String("url.path", e.Path),
			attribute.String("bloom.request_id", e.RequestID),
		),
	)

	h.mu.Lock()
	h.spans[e.RequestID] = span
	h.mu.Unlock()
}

// OnRequestEnd closes the span opened for the request. End events without a
// matching start are dropped.
func (h *TracingHook) OnRequestEnd(e core.RequestEndEvent) {
	h.mu.Lock()
	span, ok := h.spans[e.RequestID]
	delete(h.spans, e.RequestID)
	h.mu.Unlock()
	if !ok {
		return
	}

	span.SetAttributes(
		attribute.Int("http.response.status_code", e.Status),
		attribute.Int("bloom.attempts", e.Attempts),
	)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(e.End))
}
