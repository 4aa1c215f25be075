package core

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// SessionConfig sizes the connection pool behind a Session.
type SessionConfig struct {
	MaxIdleConns        int // Idle connections kept across all hosts (default: 20)
	MaxIdleConnsPerHost int // Idle connections kept per host (default: 10)
	MaxConnsPerHost     int // Hard per-host connection cap, 0 means unlimited
}

// DefaultSessionConfig sizes a session for a single blocking caller.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
	}
}

// ScopeSessionConfig sizes a session for many interleaved callers sharing
// one scope.
func ScopeSessionConfig() SessionConfig {
	return SessionConfig{
		MaxIdleConns:    100,
		MaxConnsPerHost: 30,
	}
}

// Session is a pooled HTTP connection set with keep-alive. It is safe for
// concurrent use; Close is idempotent.
type Session struct {
	client    *http.Client
	transport *http.Transport
	closed    atomic.Bool
}

// NewSession builds a Session with the service timeouts: 10s dial, 30s
// response-header wait. The client itself carries no deadline; per-request
// deadlines come from context so streaming bodies are not cut mid-read.
func NewSession(cfg SessionConfig) *Session {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   ConnectTimeout,
		ResponseHeaderTimeout: ReadTimeout,
	}
	return &Session{
		client:    &http.Client{Transport: transport},
		transport: transport,
	}
}

// Do sends an HTTP request over the session's connection pool.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	return s.client.Do(req)
}

// Close releases the session's idle connections and marks it dead.
// In-flight requests are allowed to finish. Safe to call more than once.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.transport.CloseIdleConnections()
}

// IsClosed reports whether Close has been called. Pools use this to detect
// a dead session and rebuild it.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// SessionPool lazily constructs and hands out a single shared Session.
// The session is built on first Acquire, concurrent acquirers all receive
// the same instance, and Close tears it down exactly once.
type SessionPool struct {
	mu      sync.RWMutex
	cfg     SessionConfig
	session *Session
	closed  bool
}

// NewSessionPool creates an empty pool. Zero-value SessionConfig fields
// take the blocking defaults.
func NewSessionPool(cfg SessionConfig) *SessionPool {
	if cfg.MaxIdleConns <= 0 && cfg.MaxIdleConnsPerHost <= 0 && cfg.MaxConnsPerHost <= 0 {
		cfg = DefaultSessionConfig()
	}
	return &SessionPool{cfg: cfg}
}

// Acquire returns the pool's session, constructing it on first use.
// Returns ErrPoolClosed after Close.
func (p *SessionPool) Acquire() (*Session, error) {
	// Fast path: session already built.
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	if s := p.session; s != nil {
		p.mu.RUnlock()
		return s, nil
	}
	p.mu.RUnlock()

	// Slow path: re-check under the write lock so concurrent acquirers
	// build at most one session.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	if p.session == nil {
		p.session = NewSession(p.cfg)
	}
	return p.session, nil
}

// Close shuts the pool down. Idempotent; subsequent Acquire calls return
// ErrPoolClosed.
func (p *SessionPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.session != nil {
		p.session.Close()
		p.session = nil
	}
}

// IsClosed reports whether the pool has been closed.
func (p *SessionPool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
