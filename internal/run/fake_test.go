package run

import (
	"context"
	"fmt"
	"os"
	"strings"

	"stdbench/internal/config"
	"stdbench/internal/executor"
	"stdbench/internal/tactile"
)

// scriptedExecutor records calls and answers query tools with fixed output.
type scriptedExecutor struct {
	calls      []string
	evalOutput string
	benchOut   string
	fail       map[string]string
	// callLog, when set, also receives every call, so it can be shared
	// with mock programs that log to the same file.
	callLog string
}

var _ executor.Executor = (*scriptedExecutor)(nil)

func (s *scriptedExecutor) record(op string, args ...any) error {
	parts := []string{op}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	line := strings.Join(parts, " ")
	s.calls = append(s.calls, line)
	if s.callLog != "" {
		f, err := os.OpenFile(s.callLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(f, line)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	if msg, ok := s.fail[op]; ok {
		return &executor.ToolError{Message: msg, Program: op, ExitCode: 1}
	}
	return nil
}

func (s *scriptedExecutor) Command(program string) *tactile.Pipeline { return tactile.New(program) }

func (s *scriptedExecutor) Invert(context.Context, string, string, int) error { return nil }

func (s *scriptedExecutor) Compress(context.Context, string, config.Encoding) error { return nil }

func (s *scriptedExecutor) CreateWandData(context.Context, string) error { return nil }

func (s *scriptedExecutor) BuildLexicon(context.Context, string, string) error { return nil }

func (s *scriptedExecutor) ExtractTopics(_ context.Context, in, out string) error {
	return s.record("extract_topics", in, out)
}

func (s *scriptedExecutor) Merge(context.Context, string, int, int) error { return nil }

func (s *scriptedExecutor) EvaluateQueries(_ context.Context, _ *config.Collection, req executor.QueryRequest) (string, error) {
	if err := s.record("evaluate", req.Algorithm, req.Encoding, req.Queries, req.Scorer); err != nil {
		return "", err
	}
	return s.evalOutput, nil
}

func (s *scriptedExecutor) Benchmark(_ context.Context, _ *config.Collection, req executor.QueryRequest) (string, error) {
	if err := s.record("benchmark", req.Algorithm, req.Encoding, req.Queries, req.Scorer); err != nil {
		return "", err
	}
	return s.benchOut + string(req.Algorithm) + "/" + string(req.Encoding) + "\n", nil
}
