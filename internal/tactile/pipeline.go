package tactile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// stageSeparator prefixes every piped stage in the rendered form.
const stageSeparator = "\n    | "

// Pipeline is an ordered list of processes where each stage's stdout feeds
// the next stage's stdin.
type Pipeline struct {
	stages  []Command
	current int
	muted   bool
	logger  *zap.Logger
}

// New creates a single-stage pipeline running program.
func New(program string) *Pipeline {
	return &Pipeline{
		stages: []Command{{Binary: program}},
		logger: zap.NewNop(),
	}
}

// FromCommand creates a single-stage pipeline from a command specification.
func FromCommand(cmd Command) *Pipeline {
	return &Pipeline{
		stages: []Command{cmd.clone()},
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger used for the [EXEC] debug line.
func (p *Pipeline) WithLogger(logger *zap.Logger) *Pipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Mute disables the [EXEC] debug line.
func (p *Pipeline) Mute() *Pipeline {
	p.muted = true
	return p
}

// Arg appends a single argument to the current stage.
func (p *Pipeline) Arg(arg string) *Pipeline {
	p.stages[p.current].Arguments = append(p.stages[p.current].Arguments, arg)
	return p
}

// Args appends arguments to the current stage.
func (p *Pipeline) Args(args ...string) *Pipeline {
	p.stages[p.current].Arguments = append(p.stages[p.current].Arguments, args...)
	return p
}

// Dir sets the working directory of the current stage.
func (p *Pipeline) Dir(dir string) *Pipeline {
	p.stages[p.current].WorkingDirectory = dir
	return p
}

// Pipe appends a new stage running program; it becomes the current stage.
func (p *Pipeline) Pipe(program string) *Pipeline {
	return p.PipeCommand(Command{Binary: program})
}

// PipeCommand appends cmd as a new stage; it becomes the current stage.
func (p *Pipeline) PipeCommand(cmd Command) *Pipeline {
	p.stages = append(p.stages, cmd.clone())
	p.current = len(p.stages) - 1
	return p
}

// PipePipeline appends every stage of next, in order. The last of them
// becomes the current stage.
func (p *Pipeline) PipePipeline(next *Pipeline) *Pipeline {
	for _, cmd := range next.stages {
		p.PipeCommand(cmd)
	}
	return p
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Stages returns a copy of the stage specifications.
func (p *Pipeline) Stages() []Command {
	out := make([]Command, len(p.stages))
	for i, cmd := range p.stages {
		out[i] = cmd.clone()
	}
	return out
}

// Terminal returns a copy of the last stage.
func (p *Pipeline) Terminal() Command {
	return p.stages[len(p.stages)-1].clone()
}

// String renders the first stage as "program args" and every following
// stage on its own line behind a pipe marker.
func (p *Pipeline) String() string {
	var sb strings.Builder
	for i, cmd := range p.stages {
		if i > 0 {
			sb.WriteString(stageSeparator)
		}
		sb.WriteString(cmd.CommandString())
	}
	return sb.String()
}

// Execute runs the pipeline with the terminal stage writing to the
// process's own stdout and stderr, and returns its exit status.
func (p *Pipeline) Execute(ctx context.Context) (*ExecutionResult, error) {
	return p.run(ctx, os.Stdout, os.Stderr, nil, nil)
}

// Output runs the pipeline and captures the terminal stage's stdout and stderr.
func (p *Pipeline) Output(ctx context.Context) (*ExecutionResult, error) {
	var stdout, stderr bytes.Buffer
	return p.run(ctx, &stdout, &stderr, &stdout, &stderr)
}

// run spawns every stage in order and waits for the terminal one.
//
// Upstream stages are reaped, but their exit status is only logged: a failing
// producer is reported solely through whatever it does to the terminal
// stage. Callers relying on upstream failures must check for them separately.
func (p *Pipeline) run(ctx context.Context, stdout, stderr io.Writer, outBuf, errBuf *bytes.Buffer) (*ExecutionResult, error) {
	if !p.muted {
		p.logger.Debug("[EXEC] " + p.String())
	}

	cmds := make([]*exec.Cmd, len(p.stages))
	for i, spec := range p.stages {
		cmd := exec.CommandContext(ctx, spec.Binary, spec.Arguments...)
		cmd.Dir = spec.WorkingDirectory
		cmd.Stderr = os.Stderr
		cmds[i] = cmd
	}
	terminal := cmds[len(cmds)-1]
	terminal.Stdout = stdout
	terminal.Stderr = stderr

	// The parent keeps no pipe end open once the children are spawned,
	// otherwise consumers would never see EOF.
	var ends []*os.File
	for i := 0; i < len(cmds)-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			closeAll(ends)
			return nil, fmt.Errorf("failed to open pipe: %w", err)
		}
		cmds[i].Stdout = w
		cmds[i+1].Stdin = r
		ends = append(ends, r, w)
	}

	result := &ExecutionResult{ExitCode: -1, StartedAt: time.Now()}
	terminalSpec := p.Terminal()
	result.Command = &terminalSpec

	for i, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			closeAll(ends)
			abort(cmds[:i])
			return nil, fmt.Errorf("failed to spawn %s: %w", p.stages[i].Binary, err)
		}
	}
	closeAll(ends)

	var upstream errgroup.Group
	for i, cmd := range cmds[:len(cmds)-1] {
		i, cmd := i, cmd
		upstream.Go(func() error {
			if err := cmd.Wait(); err != nil {
				return fmt.Errorf("%s: %w", p.stages[i].Binary, err)
			}
			return nil
		})
	}

	waitErr := terminal.Wait()
	if err := upstream.Wait(); err != nil {
		p.logger.Warn("upstream pipeline stage failed", zap.Error(err))
	}

	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	if outBuf != nil {
		result.Stdout = outBuf.String()
	}
	if errBuf != nil {
		result.Stderr = errBuf.String()
	}

	if ctx.Err() != nil {
		return result, fmt.Errorf("%s: %w", terminalSpec.Binary, ctx.Err())
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, fmt.Errorf("failed waiting for %s: %w", terminalSpec.Binary, waitErr)
		}
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	result.ExitCode = 0
	return result, nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// abort kills and reaps stages that were already spawned.
func abort(started []*exec.Cmd) {
	for _, cmd := range started {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
	}
}
