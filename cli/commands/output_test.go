package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/petal-labs/bloom/core"
)

func TestExitError(t *testing.T) {
	err := exitWithCode(ExitValidation, errors.New("bad request"))

	if err.Error() != "bad request" {
		t.Errorf("Error() = %q, want %q", err.Error(), "bad request")
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %T, want *exitError", err)
	}
	if ee.ExitCode() != ExitValidation {
		t.Errorf("ExitCode() = %d, want %d", ee.ExitCode(), ExitValidation)
	}
}

func TestHandleServiceErrorExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &core.Error{Service: "text", Err: core.ErrValidation}, ExitValidation},
		{"network", &core.Error{Service: "text", Err: core.ErrNetwork}, ExitNetwork},
		{"timeout", &core.Error{Service: "text", Err: core.ErrTimeout}, ExitNetwork},
		{"transfer", &core.Error{Service: "text", Err: core.ErrTransfer}, ExitNetwork},
		{"server", &core.Error{Service: "text", Err: core.ErrServer}, ExitService},
		{"authentication", &core.Error{Service: "text", Err: core.ErrAuthentication}, ExitService},
		{"plain error", errors.New("boom"), ExitService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &App{stderr: &bytes.Buffer{}}

			err := a.handleServiceError(tt.err)
			var ee *exitError
			if !errors.As(err, &ee) {
				t.Fatalf("error = %T, want *exitError", err)
			}
			if ee.ExitCode() != tt.want {
				t.Errorf("ExitCode() = %d, want %d", ee.ExitCode(), tt.want)
			}
		})
	}
}

func TestHandleServiceErrorMessage(t *testing.T) {
	stderr := &bytes.Buffer{}
	a := &App{stderr: stderr}

	_ = a.handleServiceError(&core.Error{
		Service:    "image",
		Status:     401,
		RequestID:  "req-1",
		Message:    "Invalid authentication",
		Suggestion: "Check your API token.",
		Err:        core.ErrAuthentication,
	})

	out := stderr.String()
	for _, want := range []string{"Invalid authentication", "Check your API token.", "req-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr missing %q:\n%s", want, out)
		}
	}
}

func TestHandleServiceErrorJSON(t *testing.T) {
	stderr := &bytes.Buffer{}
	a := &App{stderr: stderr, jsonOutput: true}

	_ = a.handleServiceError(&core.Error{
		Service: "text",
		Status:  429,
		Message: "rate limit exceeded",
		Err:     core.ErrRateLimited,
	})

	var payload struct {
		Error struct {
			Service string `json:"service"`
			Message string `json:"message"`
			Status  int    `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(stderr.Bytes(), &payload); err != nil {
		t.Fatalf("stderr is not JSON: %v\n%s", err, stderr.String())
	}
	if payload.Error.Service != "text" {
		t.Errorf("service = %q, want %q", payload.Error.Service, "text")
	}
	if payload.Error.Status != 429 {
		t.Errorf("status = %d, want 429", payload.Error.Status)
	}
	if payload.Error.Message != "rate limit exceeded" {
		t.Errorf("message = %q, want %q", payload.Error.Message, "rate limit exceeded")
	}
}

func TestOutputJSONIndents(t *testing.T) {
	stdout := &bytes.Buffer{}
	a := &App{stdout: stdout}

	if err := a.outputJSON(map[string]interface{}{"text": "hi"}); err != nil {
		t.Fatalf("outputJSON() error = %v", err)
	}
	want := "{\n  \"text\": \"hi\"\n}\n"
	if got := stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}
