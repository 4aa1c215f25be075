package commands

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestTextCommandPrintsResponse(t *testing.T) {
	srv, rec := newCommandServer(t)
	h := newHarness(t, srv)

	if err := h.run("text", "--prompt", "write a haiku"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := h.stdout.String(); got != "generated text\n" {
		t.Errorf("stdout = %q, want %q", got, "generated text\n")
	}
	if got := rec.snapshot().path; got != "/write a haiku" {
		t.Errorf("request path = %q, want %q", got, "/write a haiku")
	}
}

func TestTextCommandJSONOutput(t *testing.T) {
	srv, _ := newCommandServer(t)
	h := newHarness(t, srv)

	if err := h.run("text", "--prompt", "hi", "--json"); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(h.stdout.Bytes(), &result); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, h.stdout.String())
	}
	if result.Text != "generated text" {
		t.Errorf("text = %q, want %q", result.Text, "generated text")
	}
}

func TestTextCommandStream(t *testing.T) {
	srv, rec := newCommandServer(t)
	h := newHarness(t, srv)

	if err := h.run("text", "--prompt", "count to three", "--stream"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := h.stdout.String(); got != "streamed\n" {
		t.Errorf("stdout = %q, want %q", got, "streamed\n")
	}
	if got := rec.snapshot().query.Get("stream"); got != "true" {
		t.Errorf("stream = %q, want %q", got, "true")
	}
}

func TestTextCommandFlagsReachTheWire(t *testing.T) {
	srv, rec := newCommandServer(t)
	h := newHarness(t, srv)

	err := h.run("text", "--prompt", "hi", "--system", "be brief",
		"--seed", "42", "--temperature", "0.5", "--json-mode", "--private")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	q := rec.snapshot().query
	if got := q.Get("system"); got != "be brief" {
		t.Errorf("system = %q, want %q", got, "be brief")
	}
	if got := q.Get("seed"); got != "42" {
		t.Errorf("seed = %q, want %q", got, "42")
	}
	if got := q.Get("temperature"); got != "0.5" {
		t.Errorf("temperature = %q, want %q", got, "0.5")
	}
	if got := q.Get("json"); got != "true" {
		t.Errorf("json = %q, want %q", got, "true")
	}
	if got := q.Get("private"); got != "true" {
		t.Errorf("private = %q, want %q", got, "true")
	}
}

func TestTextCommandReasoningEnhancesPrompt(t *testing.T) {
	srv, rec := newCommandServer(t)
	h := newHarness(t, srv)

	if err := h.run("text", "--prompt", "why is the sky blue", "--reasoning", "high"); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	path := rec.snapshot().path
	if !strings.Contains(path, "User question: why is the sky blue") {
		t.Errorf("request path = %q, want the enhanced prompt framing", path)
	}
	if strings.HasPrefix(path, "/why") {
		t.Error("prompt was sent unenhanced despite --reasoning")
	}
}

func TestTextCommandRejectsUnknownReasoning(t *testing.T) {
	srv, _ := newCommandServer(t)
	h := newHarness(t, srv)

	err := h.run("text", "--prompt", "hi", "--reasoning", "extreme")
	if err == nil {
		t.Fatal("run() error = nil, want a validation error")
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %T, want *exitError", err)
	}
	if ee.ExitCode() != ExitValidation {
		t.Errorf("ExitCode() = %d, want %d", ee.ExitCode(), ExitValidation)
	}
}
