// Package build turns a raw document collection into queryable indexes by
// driving the toolchain through parse, invert, compress and WAND steps.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"stdbench/internal/config"
	"stdbench/internal/executor"
	"stdbench/internal/logging"
	"stdbench/internal/stage"
)

// MsgParse is reported when the parse pipeline fails.
const MsgParse = "Failed to parse"

// Orchestrator builds collections. It is not safe for concurrent builds of
// the same collection.
type Orchestrator struct {
	exec   executor.Executor
	stages *stage.Controller
	logger *zap.Logger
}

// New creates an Orchestrator. A nil controller suppresses nothing.
func New(exec executor.Executor, stages *stage.Controller, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		exec:   exec,
		stages: stages,
		logger: logging.Named(logger, logging.CategoryBuild),
	}
}

// Collection builds every index of coll and returns the stages that ran,
// in order. It stops at the first failure, leaving finished artifacts on disk.
func (o *Orchestrator) Collection(ctx context.Context, coll *config.Collection) ([]stage.Stage, error) {
	var ran []stage.Stage
	log := o.logger.With(zap.String("collection", coll.Name))
	prefix := "[" + coll.Name + "] [build]"

	log.Info("Processing collection")
	if o.stages.IsSuppressed(stage.BuildIndex) {
		log.Warn(prefix + " Suppressed")
		return ran, nil
	}
	ran = append(ran, stage.BuildIndex)
	log.Info(prefix + " Building index")

	if err := ensureParentExists(coll.ForwardIndex); err != nil {
		return ran, err
	}
	if err := ensureParentExists(coll.InvertedIndex); err != nil {
		return ran, err
	}

	switch {
	case o.stages.IsSuppressed(stage.ParseCollection) && o.stages.IsSuppressed(stage.ParseBatches):
		log.Warn(prefix + " [parse] Suppressed")
		log.Info(prefix + " [parse] Merging batches")
		if err := o.merge(ctx, coll); err != nil {
			return ran, err
		}
	case o.stages.IsSuppressed(stage.ParseCollection):
		log.Warn(prefix + " [parse] Suppressed")
	default:
		ran = append(ran, stage.ParseCollection)
		log.Info(prefix + " [parse] Parsing collection")
		if err := o.parse(ctx, coll); err != nil {
			return ran, err
		}
	}

	if o.stages.IsSuppressed(stage.Invert) {
		log.Warn(prefix + " [invert] Suppressed")
	} else {
		ran = append(ran, stage.Invert)
		log.Info(prefix + " [invert] Inverting index")
		terms, err := TermCount(ctx, coll)
		if err != nil {
			return ran, err
		}
		if err := o.exec.Invert(ctx, coll.ForwardIndex, coll.InvertedIndex, terms); err != nil {
			return ran, err
		}
	}

	log.Info(prefix + " [compress] Compressing index")
	for _, enc := range coll.Encodings {
		log.Debug("compressing", zap.String("encoding", string(enc)))
		if err := o.exec.Compress(ctx, coll.InvertedIndex, enc); err != nil {
			return ran, err
		}
	}
	if err := o.exec.CreateWandData(ctx, coll.InvertedIndex); err != nil {
		return ran, err
	}
	return ran, nil
}

func (o *Orchestrator) parse(ctx context.Context, coll *config.Collection) error {
	pipeline, err := ParseCommand(o.exec, coll)
	if err != nil {
		return err
	}
	if err := executor.Run(ctx, pipeline.WithLogger(o.logger), MsgParse); err != nil {
		return err
	}
	return o.buildLexicons(ctx, coll)
}

func (o *Orchestrator) merge(ctx context.Context, coll *config.Collection) error {
	batches, documents, err := batchCounts(coll)
	if err != nil {
		return err
	}
	o.logger.Debug("merging batches",
		zap.String("collection", coll.Name),
		zap.Int("batches", batches),
		zap.Int("documents", documents))
	if err := o.exec.Merge(ctx, coll.ForwardIndex, batches, documents); err != nil {
		return err
	}
	return o.buildLexicons(ctx, coll)
}

func (o *Orchestrator) buildLexicons(ctx context.Context, coll *config.Collection) error {
	if err := o.exec.BuildLexicon(ctx, coll.Terms(), coll.TermMap()); err != nil {
		return err
	}
	return o.exec.BuildLexicon(ctx, coll.Documents(), coll.DocMap())
}

func ensureParentExists(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
