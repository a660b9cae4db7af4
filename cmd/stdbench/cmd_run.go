package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stdbench/internal/logging"
	"stdbench/internal/run"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the configured runs against built indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return processRuns(cmd.Context())
	},
}

func newRunOrchestrator() *run.Orchestrator {
	return run.New(toolchain, run.Options{
		TrecEval:  cfg.TrecEval,
		UseScorer: cfg.UseScorer,
	}, loggers.Base(logging.CategoryRun))
}

// processRuns executes the runs of the selected collections in order.
func processRuns(ctx context.Context) error {
	_, runs, err := selectedRuns()
	if err != nil {
		return err
	}
	orchestrator := newRunOrchestrator()
	for i, r := range runs {
		artifacts, err := orchestrator.Process(ctx, r)
		if err != nil {
			return fmt.Errorf("[%s] run %d: %w", r.Collection.Name, i, err)
		}
		logger.Info("run finished",
			zap.String("collection", r.Collection.Name),
			zap.Stringer("type", r.Kind),
			zap.Int("artifacts", len(artifacts)))
	}
	return nil
}
