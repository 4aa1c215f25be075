package bloom

import (
	"context"

	"github.com/petal-labs/bloom/sched"
)

// Result holds the outcome of a dispatched operation. When the dispatch ran
// to completion it carries a resolved value; when it was submitted to an
// enclosing scope it carries the live task instead.
type Result[T any] struct {
	value    T
	resolved bool
	task     *sched.Task[T]
}

// Resolved returns the value when the dispatch completed synchronously.
func (r Result[T]) Resolved() (T, bool) {
	if !r.resolved {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Task returns the submitted task, or nil when the dispatch completed
// synchronously.
func (r Result[T]) Task() *sched.Task[T] {
	return r.task
}

// Await returns the operation's outcome, blocking on the task if one is
// pending. It unifies the two dispatch shapes for callers that do not care
// which branch ran.
func (r Result[T]) Await(ctx context.Context) (T, error) {
	if r.resolved {
		return r.value, nil
	}
	return r.task.Await(ctx)
}

// Dispatch routes op by execution context. Inside a scope the operation is
// submitted to that scope and the Result carries an unresolved task. Outside
// any scope, Dispatch owns a private scope for the duration of the call:
// the operation runs to completion, the scope is torn down, and the Result
// carries the resolved value.
func Dispatch[T any](ctx context.Context, op func(context.Context) (T, error)) (Result[T], error) {
	if scope := sched.FromContext(ctx); scope != nil {
		task, err := sched.Submit(scope, op)
		if err != nil {
			return Result[T]{}, err
		}
		return Result[T]{task: task}, nil
	}

	scope := sched.NewScope(ctx)
	defer scope.Close()

	task, err := sched.Submit(scope, op)
	if err != nil {
		return Result[T]{}, err
	}
	value, err := task.Await(ctx)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{value: value, resolved: true}, nil
}
