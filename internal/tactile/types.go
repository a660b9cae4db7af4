// Package tactile is the process layer of stdbench. It runs external
// programs, either alone or chained through OS pipes, and renders them
// in a stable textual form for debug logs.
//
// A Pipeline is built once, executed once and then discarded:
//   - stages are added with Pipe and receive the previous stage's stdout
//   - Arg, Args and Dir always apply to the most recently added stage
//   - only the terminal stage's exit status and output are reported
package tactile

import (
	"strings"
	"time"
)

// Command is a single process specification within a pipeline.
type Command struct {
	// Binary is the executable to run, either a bare name looked up on
	// PATH or a path to the program.
	Binary string `json:"binary"`

	// Arguments are the command-line arguments.
	Arguments []string `json:"arguments"`

	// WorkingDirectory is the directory to execute in.
	// If empty, the current process directory is used.
	WorkingDirectory string `json:"working_directory,omitempty"`
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Arguments, " ")
}

// clone returns a deep copy so that later argument appends on one pipeline
// never leak into another.
func (c Command) clone() Command {
	args := make([]string, len(c.Arguments))
	copy(args, c.Arguments)
	return Command{
		Binary:           c.Binary,
		Arguments:        args,
		WorkingDirectory: c.WorkingDirectory,
	}
}

// ExecutionResult is the outcome of the terminal stage of a pipeline.
type ExecutionResult struct {
	// ExitCode is the terminal stage's exit code (-1 if it was killed by a signal).
	ExitCode int `json:"exit_code"`

	// Stdout is the captured standard output. Empty unless the pipeline
	// was run with Output.
	Stdout string `json:"stdout"`

	// Stderr is the captured standard error. Empty unless the pipeline
	// was run with Output.
	Stderr string `json:"stderr"`

	// Duration is how long the pipeline ran.
	Duration time.Duration `json:"duration"`

	// StartedAt is when the first stage was spawned.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the terminal stage was reaped.
	FinishedAt time.Time `json:"finished_at"`

	// Command is a copy of the terminal stage.
	Command *Command `json:"command,omitempty"`
}

// Success reports whether the terminal stage exited with status zero.
func (r *ExecutionResult) Success() bool {
	return r.ExitCode == 0
}

// Output returns Stdout+Stderr.
func (r *ExecutionResult) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}
