// Package core provides the transport kernel of the Bloom SDK: pooled
// sessions, retry policy, request execution, error classification, and
// incremental event-stream decoding.
//
// The service packages (services/image, services/text, services/audio) build
// typed operations on top of this package, and the root bloom package adds
// the dual-mode dispatch facade. Most applications use those surfaces; core
// is for anyone wiring a custom endpoint or executor.
//
// # Executors
//
// An [Executor] issues one logical request, applying the retry policy across
// attempts and classifying failures:
//
//	exec := core.NewBlockingExecutor(core.Config{
//	    Token:  core.NewSecret("your-token"),
//	    Logger: logger,
//	})
//	defer exec.Close()
//
//	resp, err := exec.Do(ctx, req)
//
// [BlockingExecutor] owns a thread-confined [SessionPool]. The scheduler
// variant in package sched resolves its session from the calling scope
// instead; both share the same wire logic and retry driver.
//
// # Retry
//
// [RetryPolicy] is a pure decision function: given a zero-based attempt
// counter and a classified error it returns the wait before the next attempt
// and whether to retry at all. [Retry] is the single driver both executor
// variants use. Rate-limited failures wait for the server-provided hint;
// other retryable failures use exponential backoff with jitter. After the
// attempt budget is spent the last error is returned unchanged.
//
// # Errors
//
// Failures are classified into sentinel kinds ([ErrNetwork],
// [ErrAuthentication], [ErrPaymentRequired], [ErrRateLimited], [ErrServer],
// [ErrTimeout], [ErrStream], [ErrValidation], [ErrTransfer]) wrapped in
// [*Error], which carries the HTTP status, the request ID, a remediation
// suggestion, and any server retry hint:
//
//	if errors.Is(err, core.ErrRateLimited) {
//	    if hint, ok := core.RetryAfterHint(err); ok {
//	        time.Sleep(hint)
//	    }
//	}
//
// The suggestion text is advisory; match on the sentinel, never on strings.
//
// # Streaming
//
// [Stream] exposes a decoded server-sent event feed through channels:
//
//	stream, err := exec.Stream(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for evt := range stream.Events {
//	    fmt.Print(evt.Text)
//	}
//
// Close releases the underlying connection and is safe to call on every exit
// path. [Decoder] is the line state machine underneath: feed it raw chunks,
// drain decoded events.
//
// # Secrets
//
// API tokens travel as [Secret] values. A Secret redacts itself in every
// printing and marshaling path; the raw value is only reachable through
// Expose, and executors only ever place it in the Authorization header,
// never in a URL.
package core
