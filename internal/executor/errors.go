package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stdbench/internal/tactile"
)

// ToolError reports a tool that ran but exited with a non-zero status.
type ToolError struct {
	// Message identifies the failed operation, e.g. "Failed to invert index".
	Message  string
	Program  string
	ExitCode int
	// Stderr is set when the tool's output was captured.
	Stderr string
}

func (e *ToolError) Error() string {
	return e.Message
}

// Detail renders the error with the program, status and captured stderr.
func (e *ToolError) Detail() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s exited with status %d", e.Message, e.Program, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		sb.WriteString(": ")
		sb.WriteString(stderr)
	}
	return sb.String()
}

// IsToolError reports whether err is, or wraps, a ToolError.
func IsToolError(err error) bool {
	var te *ToolError
	return errors.As(err, &te)
}

// Run executes p with inherited output. A spawn failure is wrapped with
// message; a non-zero exit becomes a ToolError carrying message.
func Run(ctx context.Context, p *tactile.Pipeline, message string) error {
	res, err := p.Execute(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", message, err)
	}
	if !res.Success() {
		return &ToolError{Message: message, Program: p.Terminal().Binary, ExitCode: res.ExitCode}
	}
	return nil
}

// Output executes p and returns its captured stdout, with the same error
// convention as Run.
func Output(ctx context.Context, p *tactile.Pipeline, message string) (string, error) {
	res, err := p.Output(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", message, err)
	}
	if !res.Success() {
		return "", &ToolError{
			Message:  message,
			Program:  p.Terminal().Binary,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		}
	}
	return res.Stdout, nil
}
