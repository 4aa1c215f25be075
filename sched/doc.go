// Package sched provides cooperative execution scopes for concurrent
// request workloads.
//
// A Scope is an explicit arena: it owns one session pool, runs submitted
// tasks up to an admission limit (queueing the rest in order), and tears
// everything down deterministically on Close. Task contexts carry their
// scope, so scope-bound executors and nested submissions find it without
// global state:
//
//	scope := sched.NewScope(ctx)
//	defer scope.Close()
//
//	task, err := sched.Submit(scope, func(ctx context.Context) ([]byte, error) {
//		img, err := images.Generate(ctx, "a watercolor fox")
//		if err != nil {
//			return nil, err
//		}
//		return img.Data, nil
//	})
//	if err != nil {
//		return err
//	}
//	data, err := task.Await(ctx)
//
// Use sched.Running to pick an entry point when code can be called both
// ways: blocking APIs refuse to run inside a scope (they would stall its
// tasks) and their Async variants refuse to run outside one.
package sched
