package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stdbench/internal/build"
	"stdbench/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the indexes of the configured collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildCollections(cmd.Context())
	},
}

// buildCollections builds every selected collection in configuration order,
// stopping at the first failure.
func buildCollections(ctx context.Context) error {
	colls, err := cfg.SelectCollections(collections)
	if err != nil {
		return err
	}
	orchestrator := build.New(toolchain, cfg.Suppressed, loggers.Base(logging.CategoryBuild))
	for _, coll := range colls {
		performed, err := orchestrator.Collection(ctx, coll)
		if err != nil {
			return fmt.Errorf("[%s] %w", coll.Name, err)
		}
		logger.Info("collection built",
			zap.String("collection", coll.Name),
			zap.Stringers("stages", performed))
	}
	return nil
}
