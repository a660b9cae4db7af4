// Package run executes experimental runs against built indexes and writes
// one set of artifacts per (algorithm, encoding, topics) combination.
package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"stdbench/internal/config"
	"stdbench/internal/executor"
	"stdbench/internal/logging"
	"stdbench/internal/tactile"
)

// MsgTrecEval is reported when the relevance evaluator fails.
const MsgTrecEval = "Failed to evaluate results"

// Options tune how runs invoke external tools.
type Options struct {
	// TrecEval is the relevance evaluator program. Empty means trec_eval.
	TrecEval string
	// UseScorer passes the run's scorer to query tools.
	UseScorer bool
}

// Orchestrator processes runs one combination at a time.
type Orchestrator struct {
	exec   executor.Executor
	opts   Options
	logger *zap.Logger
}

// New creates an Orchestrator.
func New(exec executor.Executor, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.TrecEval == "" {
		opts.TrecEval = "trec_eval"
	}
	return &Orchestrator{
		exec:   exec,
		opts:   opts,
		logger: logging.Named(logger, logging.CategoryRun),
	}
}

// Process runs the whole sweep of r and returns the artifacts written, in
// order. The first failing tool aborts the run; earlier artifacts stay on disk.
func (o *Orchestrator) Process(ctx context.Context, r *config.Run) ([]string, error) {
	log := o.logger.With(
		zap.String("collection", r.Collection.Name),
		zap.Stringer("type", r.Kind))
	log.Info("Processing run", zap.String("output", r.Output))

	if dir := filepath.Dir(r.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	queries := make([]string, len(r.Topics))
	for i, topics := range r.Topics {
		q, err := QueriesPath(ctx, o.exec, topics)
		if err != nil {
			return nil, err
		}
		queries[i] = q
	}

	var written []string
	for _, c := range Sweep(r) {
		req := executor.QueryRequest{
			Encoding:  c.Encoding,
			Algorithm: c.Algorithm,
			Queries:   queries[c.TopicIndex],
		}
		if o.opts.UseScorer {
			req.Scorer = r.Scorer
		}
		log.Info("Running combination",
			zap.String("algorithm", string(c.Algorithm)),
			zap.String("encoding", string(c.Encoding)),
			zap.Int("topics", c.TopicIndex))

		var (
			paths []string
			err   error
		)
		switch r.Kind {
		case config.Evaluate:
			paths, err = o.evaluate(ctx, r, c, req)
		case config.Benchmark:
			paths, err = o.benchmark(ctx, r, c, req)
		default:
			err = fmt.Errorf("unknown run type: %s", r.Kind)
		}
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (o *Orchestrator) evaluate(ctx context.Context, r *config.Run, c Combination, req executor.QueryRequest) ([]string, error) {
	out, err := o.exec.EvaluateQueries(ctx, r.Collection, req)
	if err != nil {
		return nil, err
	}
	sorted, err := Canonicalize(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results of %s/%s: %w", c.Algorithm, c.Encoding, err)
	}

	resultsPath := ArtifactPath(r.Output, c, Results)
	if err := writeArtifact(resultsPath, sorted); err != nil {
		return nil, err
	}

	evaluator := tactile.New(o.opts.TrecEval).
		Args("-q", "-a", r.Qrels, resultsPath).
		WithLogger(o.logger)
	evaluation, err := executor.Output(ctx, evaluator, MsgTrecEval)
	if err != nil {
		return []string{resultsPath}, err
	}

	evalPath := ArtifactPath(r.Output, c, TrecEval)
	if err := writeArtifact(evalPath, evaluation); err != nil {
		return []string{resultsPath}, err
	}
	return []string{resultsPath, evalPath}, nil
}

func (o *Orchestrator) benchmark(ctx context.Context, r *config.Run, c Combination, req executor.QueryRequest) ([]string, error) {
	out, err := o.exec.Benchmark(ctx, r.Collection, req)
	if err != nil {
		return nil, err
	}
	path := ArtifactPath(r.Output, c, Bench)
	if err := writeArtifact(path, out); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func writeArtifact(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
