package sched

import (
	"context"

	"github.com/petal-labs/bloom/core"
)

// Executor is the scope-bound executor variant. It owns no sessions of
// its own: every request resolves the scope from its context and borrows
// that scope's session, so connections never cross scopes. Requests made
// outside any scope fail with ErrNotInScope.
type Executor struct {
	*core.RequestExecutor
}

// NewExecutor builds a scope-bound executor.
func NewExecutor(cfg core.Config) *Executor {
	return &Executor{core.NewRequestExecutor(scopeSource{}, cfg)}
}

// scopeSource acquires sessions from whichever scope the request context
// carries.
type scopeSource struct{}

func (scopeSource) Acquire(ctx context.Context) (*core.Session, error) {
	scope := FromContext(ctx)
	if scope == nil {
		return nil, ErrNotInScope
	}
	return scope.AcquireSession(ctx)
}

// Compile-time checks.
var (
	_ core.Executor      = (*Executor)(nil)
	_ core.SessionSource = scopeSource{}
)
