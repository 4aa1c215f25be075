package sched

import "context"

// taskStart is a queued task admission: run executes it, abort fails it
// without running when the scope closes first.
type taskStart struct {
	run   func()
	abort func()
}

// Task is a handle to work submitted to a scope. It resolves exactly
// once; Await and Done may be used from any goroutine.
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Await blocks until the task resolves or ctx ends. The task keeps
// running when Await returns early; ask the scope to stop it by closing
// the scope.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-t.done:
		return t.value, t.err
	}
}

// Done is closed when the task has resolved.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Resolved returns the task's value and resolution state without
// blocking.
func (t *Task[T]) Resolved() (T, bool) {
	select {
	case <-t.done:
		return t.value, true
	default:
		var zero T
		return zero, false
	}
}

// Submit schedules fn on the scope. fn receives the scope's context, so
// executors inside it resolve the scope's session pool and nested
// submissions land in the same scope. Beyond the scope's admission limit,
// tasks start in submission order as slots free up.
//
// Returns ErrScopeClosed if the scope is already closed. Tasks still
// queued when the scope closes resolve with ErrScopeClosed.
func Submit[T any](s *Scope, fn func(context.Context) (T, error)) (*Task[T], error) {
	t := &Task[T]{done: make(chan struct{})}
	ts := taskStart{
		run: func() {
			defer s.wg.Done()
			t.value, t.err = fn(s.ctx)
			close(t.done)
			s.finish()
		},
		abort: func() {
			defer s.wg.Done()
			t.err = ErrScopeClosed
			close(t.done)
		},
	}
	if err := s.start(ts); err != nil {
		return nil, err
	}
	return t, nil
}
