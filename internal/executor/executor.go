// Package executor runs the search engine toolchain. An Executor knows how
// to locate each tool and which arguments every operation takes; callers
// only deal in index paths and configuration values.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"stdbench/internal/config"
	"stdbench/internal/logging"
	"stdbench/internal/tactile"
)

// Failure messages reported by each operation.
const (
	MsgInvert        = "Failed to invert index"
	MsgCompress      = "Failed to compress index"
	MsgWandData      = "Failed to create WAND data"
	MsgLexicon       = "Failed to build lexicon"
	MsgExtractTopics = "Failed to extract topics"
	MsgMerge         = "Failed to merge collection batches"
	MsgEvaluate      = "Failed to evaluate queries"
	MsgBenchmark     = "Failed to run benchmark"
)

const (
	defaultResultSize = "1000"
	defaultStemmer    = "porter2"
)

// QueryRequest selects what a query tool runs.
type QueryRequest struct {
	Encoding  config.Encoding
	Algorithm config.Algorithm
	Queries   string
	// Scorer is passed as --scorer when non-empty.
	Scorer string
}

// Executor runs toolchain programs.
type Executor interface {
	// Command starts a pipeline for the named tool, for ad hoc invocations.
	Command(program string) *tactile.Pipeline

	Invert(ctx context.Context, forward, inverted string, termCount int) error
	Compress(ctx context.Context, inverted string, enc config.Encoding) error
	CreateWandData(ctx context.Context, inverted string) error
	BuildLexicon(ctx context.Context, input, output string) error
	ExtractTopics(ctx context.Context, input, output string) error
	Merge(ctx context.Context, forward string, batchCount, documentCount int) error

	// EvaluateQueries returns the TREC run produced for req.
	EvaluateQueries(ctx context.Context, coll *config.Collection, req QueryRequest) (string, error)
	// Benchmark returns the raw timing output produced for req.
	Benchmark(ctx context.Context, coll *config.Collection, req QueryRequest) (string, error)
}

// toolbox implements every operation on top of a program resolver.
type toolbox struct {
	resolve func(program string) string
	logger  *zap.Logger
}

func (t toolbox) Command(program string) *tactile.Pipeline {
	return tactile.New(t.resolve(program)).WithLogger(t.logger)
}

func (t toolbox) Invert(ctx context.Context, forward, inverted string, termCount int) error {
	cmd := t.Command("invert").Args("-i", forward, "-o", inverted, "--term-count", strconv.Itoa(termCount))
	return Run(ctx, cmd, MsgInvert)
}

func (t toolbox) Compress(ctx context.Context, inverted string, enc config.Encoding) error {
	cmd := t.Command("create_freq_index").
		Args("-t", string(enc), "-c", inverted, "-o", inverted+"."+string(enc), "--check")
	return Run(ctx, cmd, MsgCompress)
}

func (t toolbox) CreateWandData(ctx context.Context, inverted string) error {
	cmd := t.Command("create_wand_data").Args("-c", inverted, "-o", inverted+".wand")
	return Run(ctx, cmd, MsgWandData)
}

func (t toolbox) BuildLexicon(ctx context.Context, input, output string) error {
	return Run(ctx, t.Command("lexicon").Args("build", input, output), MsgLexicon)
}

func (t toolbox) ExtractTopics(ctx context.Context, input, output string) error {
	return Run(ctx, t.Command("extract_topics").Args("-i", input, "-o", output), MsgExtractTopics)
}

func (t toolbox) Merge(ctx context.Context, forward string, batchCount, documentCount int) error {
	cmd := t.Command("parse_collection").Args(
		"--output", forward,
		"merge",
		"--batch-count", strconv.Itoa(batchCount),
		"--document-count", strconv.Itoa(documentCount),
	)
	return Run(ctx, cmd, MsgMerge)
}

func (t toolbox) EvaluateQueries(ctx context.Context, coll *config.Collection, req QueryRequest) (string, error) {
	cmd := t.queryCommand("evaluate_queries", coll, req, true)
	return Output(ctx, cmd, MsgEvaluate)
}

func (t toolbox) Benchmark(ctx context.Context, coll *config.Collection, req QueryRequest) (string, error) {
	cmd := t.queryCommand("queries", coll, req, false)
	return Output(ctx, cmd, MsgBenchmark)
}

func (t toolbox) queryCommand(program string, coll *config.Collection, req QueryRequest, documents bool) *tactile.Pipeline {
	cmd := t.Command(program).Args(
		"-t", string(req.Encoding),
		"-i", coll.CompressedIndex(req.Encoding),
		"-w", coll.WandData(),
		"-a", string(req.Algorithm),
		"-q", req.Queries,
		"--terms", coll.TermMap(),
	)
	if documents {
		cmd.Args("--documents", coll.DocMap())
	}
	cmd.Args("--stemmer", defaultStemmer, "-k", defaultResultSize)
	if req.Scorer != "" {
		cmd.Args("--scorer", req.Scorer)
	}
	return cmd
}

// SystemPathExecutor runs tools found on PATH.
type SystemPathExecutor struct {
	toolbox
}

// NewSystemPathExecutor creates an executor resolving tools on PATH.
func NewSystemPathExecutor(logger *zap.Logger) *SystemPathExecutor {
	return &SystemPathExecutor{toolbox{
		resolve: func(program string) string { return program },
		logger:  logging.Named(logger, logging.CategoryExecutor),
	}}
}

// CustomPathExecutor runs tools from a directory of prebuilt binaries.
type CustomPathExecutor struct {
	toolbox
	bin string
}

// NewCustomPathExecutor creates an executor resolving tools inside bin,
// which must be an existing directory.
func NewCustomPathExecutor(bin string, logger *zap.Logger) (*CustomPathExecutor, error) {
	info, err := os.Stat(bin)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("Failed to construct executor: not a directory: %s", bin)
	}
	return &CustomPathExecutor{
		toolbox: toolbox{
			resolve: func(program string) string { return filepath.Join(bin, program) },
			logger:  logging.Named(logger, logging.CategoryExecutor),
		},
		bin: bin,
	}, nil
}

// Path returns the directory tools are resolved in.
func (e *CustomPathExecutor) Path() string {
	return e.bin
}

// FromSource creates the executor described by a configured source.
func FromSource(src config.Source, logger *zap.Logger) (Executor, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	switch src.Type {
	case config.SourcePath:
		return NewCustomPathExecutor(src.Path, logger)
	default:
		return NewSystemPathExecutor(logger), nil
	}
}
