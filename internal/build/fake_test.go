package build

import (
	"context"
	"fmt"
	"strings"

	"stdbench/internal/config"
	"stdbench/internal/executor"
	"stdbench/internal/tactile"
)

// recordingExecutor records every operation as a single line and fails the
// operations listed in fail with a ToolError.
type recordingExecutor struct {
	calls []string
	fail  map[string]string
	// parseScript is the shell body run in place of parse_collection.
	parseScript string
}

var _ executor.Executor = (*recordingExecutor)(nil)

func (r *recordingExecutor) record(op string, args ...any) error {
	parts := []string{op}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	r.calls = append(r.calls, strings.Join(parts, " "))
	if msg, ok := r.fail[op]; ok {
		return &executor.ToolError{Message: msg, Program: op, ExitCode: 1}
	}
	return nil
}

func (r *recordingExecutor) Command(program string) *tactile.Pipeline {
	r.calls = append(r.calls, "command "+program)
	script := r.parseScript
	if script == "" {
		script = "cat >/dev/null"
	}
	return tactile.New("sh").Args("-c", script)
}

func (r *recordingExecutor) Invert(_ context.Context, fwd, inv string, terms int) error {
	return r.record("invert", fwd, inv, terms)
}

func (r *recordingExecutor) Compress(_ context.Context, inv string, enc config.Encoding) error {
	return r.record("compress", inv, enc)
}

func (r *recordingExecutor) CreateWandData(_ context.Context, inv string) error {
	return r.record("wand", inv)
}

func (r *recordingExecutor) BuildLexicon(_ context.Context, in, out string) error {
	return r.record("lexicon", in, out)
}

func (r *recordingExecutor) ExtractTopics(_ context.Context, in, out string) error {
	return r.record("extract_topics", in, out)
}

func (r *recordingExecutor) Merge(_ context.Context, fwd string, batches, docs int) error {
	return r.record("merge", fwd, batches, docs)
}

func (r *recordingExecutor) EvaluateQueries(_ context.Context, _ *config.Collection, req executor.QueryRequest) (string, error) {
	return "", r.record("evaluate", req.Algorithm, req.Encoding, req.Queries)
}

func (r *recordingExecutor) Benchmark(_ context.Context, _ *config.Collection, req executor.QueryRequest) (string, error) {
	return "", r.record("benchmark", req.Algorithm, req.Encoding, req.Queries)
}
