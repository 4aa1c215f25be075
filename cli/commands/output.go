package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/bloom/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitService    = 2
	ExitNetwork    = 3
)

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// handleServiceError prints a failure and maps it to an exit code.
func (a *App) handleServiceError(err error) error {
	var svcErr *core.Error
	if errors.As(err, &svcErr) {
		if a.jsonOutput {
			a.outputErrorJSON(svcErr)
		} else {
			fmt.Fprintf(a.stderr, "Error: %s\n", svcErr.Message)
			if svcErr.Suggestion != "" {
				fmt.Fprintf(a.stderr, "  %s\n", svcErr.Suggestion)
			}
			if svcErr.RequestID != "" {
				fmt.Fprintf(a.stderr, "  Request ID: %s\n", svcErr.RequestID)
			}
		}
	} else if a.jsonOutput {
		a.outputSimpleErrorJSON("error", err.Error())
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}

	switch {
	case errors.Is(err, core.ErrValidation):
		return exitWithCode(ExitValidation, err)
	case errors.Is(err, core.ErrNetwork),
		errors.Is(err, core.ErrTimeout),
		errors.Is(err, core.ErrTransfer):
		return exitWithCode(ExitNetwork, err)
	default:
		return exitWithCode(ExitService, err)
	}
}

// outputJSON pretty-prints a result object to stdout.
func (a *App) outputJSON(v interface{}) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) outputErrorJSON(svcErr *core.Error) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"service":    svcErr.Service,
			"message":    svcErr.Message,
			"status":     svcErr.Status,
			"request_id": svcErr.RequestID,
			"suggestion": svcErr.Suggestion,
		},
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

func (a *App) outputSimpleErrorJSON(errType, message string) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}
