package sched

import (
	"context"
	"errors"
	"sync"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"

	"github.com/petal-labs/bloom/core"
)

// ErrScopeClosed is returned for work submitted to, or still queued in, a
// scope that has been closed.
var ErrScopeClosed = errors.New("scope closed")

// ErrNotInScope is returned when scope-bound machinery runs under a
// context that carries no scope.
var ErrNotInScope = errors.New("no scope in context")

// defaultLimit caps tasks in flight per scope, matching the scope
// session's connection sizing.
const defaultLimit = 100

type scopeKey struct{}

// FromContext returns the scope the context runs under, or nil.
func FromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// Running reports whether ctx is executing inside a scope. Callers use
// this to choose between blocking and scope-bound entry points.
func Running(ctx context.Context) bool {
	return FromContext(ctx) != nil
}

// Option configures a Scope.
type Option func(*Scope)

// WithLimit caps the number of tasks running at once. Submissions beyond
// the cap queue in order.
func WithLimit(n int) Option {
	return func(s *Scope) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithSessionConfig sizes the scope's session.
func WithSessionConfig(cfg core.SessionConfig) Option {
	return func(s *Scope) {
		s.pool.cfg = cfg
	}
}

// WithLogger attaches a logger to the scope.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scope) {
		s.log = log
	}
}

// Scope is an explicit arena for cooperative request execution. It owns a
// session pool shared by every task it runs, admits a bounded number of
// tasks at once (queueing the rest in order), and ends deterministically:
// Close cancels running tasks, aborts queued ones, waits for everything
// to finish, then closes the pool.
//
// Contexts handed to tasks carry the scope, so executors and nested
// submissions resolve it without any global registry.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	pool   *scopePool
	log    zerolog.Logger
	limit  int

	mu       sync.Mutex
	pending  *queue.Queue
	inFlight int
	closed   bool
	wg       sync.WaitGroup

	closeOnce sync.Once
	closedAll chan struct{}
}

// NewScope creates a scope under the given parent context. The caller
// must Close it.
func NewScope(ctx context.Context, opts ...Option) *Scope {
	s := &Scope{
		pool:      newScopePool(core.ScopeSessionConfig()),
		limit:     defaultLimit,
		pending:   queue.New(),
		closedAll: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.WithValue(ctx, scopeKey{}, s))
	return s
}

// Context returns the scope's context. It carries the scope and is
// canceled by Close.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// AcquireSession returns the scope's shared session, building or
// rebuilding it as needed. Suspends until the pool guard is available,
// ctx is canceled, or the scope closes.
func (s *Scope) AcquireSession(ctx context.Context) (*core.Session, error) {
	return s.pool.Acquire(ctx)
}

// Close shuts the scope down: running tasks see their context canceled,
// queued tasks fail with ErrScopeClosed, and once every task has finished
// the session pool is released. Idempotent; every caller returns only
// after teardown is complete.
func (s *Scope) Close() {
	s.closeOnce.Do(s.teardown)
	<-s.closedAll
}

func (s *Scope) teardown() {
	s.mu.Lock()
	s.closed = true
	var aborts []func()
	for s.pending.Length() > 0 {
		aborts = append(aborts, s.pending.Remove().(taskStart).abort)
	}
	s.mu.Unlock()

	s.cancel()
	for _, abort := range aborts {
		abort()
	}
	s.wg.Wait()
	s.pool.Close()

	s.log.Debug().Int("aborted", len(aborts)).Msg("scope closed")
	close(s.closedAll)
}

// start either runs the task now or queues it. Reports ErrScopeClosed for
// a closed scope.
func (s *Scope) start(ts taskStart) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrScopeClosed
	}
	s.wg.Add(1)
	if s.inFlight < s.limit {
		s.inFlight++
		s.mu.Unlock()
		go ts.run()
		return nil
	}
	s.pending.Add(ts)
	s.mu.Unlock()
	return nil
}

// finish hands the freed slot to the oldest queued task, if any.
func (s *Scope) finish() {
	s.mu.Lock()
	if !s.closed && s.pending.Length() > 0 {
		next := s.pending.Remove().(taskStart)
		s.mu.Unlock()
		go next.run()
		return
	}
	s.inFlight--
	s.mu.Unlock()
}

// scopePool is the scope-confined session pool. Unlike the blocking
// pool's mutex, the guard is a channel so acquisition can be abandoned
// when the caller's context ends.
type scopePool struct {
	cfg   core.SessionConfig
	guard chan struct{}
	done  chan struct{}

	session *core.Session
	closed  bool
}

func newScopePool(cfg core.SessionConfig) *scopePool {
	return &scopePool{
		cfg:   cfg,
		guard: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Acquire returns the pool's session, building it on first use and
// rebuilding it if the held one has died.
func (p *scopePool) Acquire(ctx context.Context) (*core.Session, error) {
	select {
	case p.guard <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, core.ErrPoolClosed
	}
	defer func() { <-p.guard }()

	if p.closed {
		return nil, core.ErrPoolClosed
	}
	if p.session == nil || p.session.IsClosed() {
		p.session = core.NewSession(p.cfg)
	}
	return p.session, nil
}

// Close tears the pool down. Idempotent.
func (p *scopePool) Close() {
	p.guard <- struct{}{}
	if !p.closed {
		p.closed = true
		close(p.done)
		if p.session != nil {
			p.session.Close()
			p.session = nil
		}
	}
	<-p.guard
}

// IsClosed reports whether the pool has been closed.
func (p *scopePool) IsClosed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
