package sched

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTaskResolved(t *testing.T) {
	s := NewScope(context.Background())
	defer s.Close()

	gate := make(chan struct{})
	task, err := Submit(s, func(ctx context.Context) (string, error) {
		<-gate
		return "ready", nil
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if v, resolved := task.Resolved(); resolved {
		t.Errorf("Resolved() = (%q, true) before the task finished", v)
	}

	close(gate)
	if _, err := task.Await(context.Background()); err != nil {
		t.Fatalf("Await() error = %v", err)
	}

	v, resolved := task.Resolved()
	if !resolved {
		t.Fatal("Resolved() = false after the task finished")
	}
	if v != "ready" {
		t.Errorf("Resolved() = %q, want %q", v, "ready")
	}
}

func TestTaskDone(t *testing.T) {
	s := NewScope(context.Background())
	defer s.Close()

	task, err := Submit(s, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after the task finished")
	}
}

func TestTaskAwaitHonorsContext(t *testing.T) {
	s := NewScope(context.Background())
	defer s.Close()

	gate := make(chan struct{})
	task, err := Submit(s, func(ctx context.Context) (int, error) {
		select {
		case <-gate:
		case <-ctx.Done():
		}
		return 9, nil
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := task.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Await() error = %v, want context.DeadlineExceeded", err)
	}

	// An abandoned Await leaves the task running.
	close(gate)
	got, err := task.Await(context.Background())
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if got != 9 {
		t.Errorf("Await() = %d, want 9", got)
	}
}

func TestTaskAwaitPropagatesError(t *testing.T) {
	s := NewScope(context.Background())
	defer s.Close()

	fail := errors.New("generation failed")
	task, err := Submit(s, func(ctx context.Context) (int, error) {
		return 0, fail
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := task.Await(context.Background()); !errors.Is(err, fail) {
		t.Errorf("Await() error = %v, want %v", err, fail)
	}
}
