package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stdbench/internal/regression"
)

var (
	snapshotDir      string
	snapshotCompress bool
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage baseline artifacts",
}

var baselineSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Copy the artifacts of every run into a baseline directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapshotDir == "" {
			return fmt.Errorf("--dir is required")
		}
		_, runs, err := selectedRuns()
		if err != nil {
			return err
		}
		if err := regression.CheckBaselineNames(runs); err != nil {
			return err
		}
		count := 0
		for i, r := range runs {
			written, err := regression.SaveBaseline(r, snapshotDir, snapshotCompress)
			if err != nil {
				return fmt.Errorf("[%s] failed to save baseline of run %d: %w", r.Collection.Name, i, err)
			}
			count += len(written)
		}
		logger.Info("baseline saved",
			zap.String("dir", snapshotDir),
			zap.Bool("compressed", snapshotCompress),
			zap.Int("artifacts", count))
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d artifact(s) to %s\n", count, snapshotDir)
		return nil
	},
}

func init() {
	baselineSaveCmd.Flags().StringVar(&snapshotDir, "dir", "", "Baseline directory")
	baselineSaveCmd.Flags().BoolVar(&snapshotCompress, "compress", false, "Store artifacts zstd-compressed")
	baselineCmd.AddCommand(baselineSaveCmd)
}
