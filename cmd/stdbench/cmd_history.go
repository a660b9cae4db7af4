package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"stdbench/internal/logging"
	"stdbench/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded baseline comparisons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.History.Disabled {
			return fmt.Errorf("history is disabled in the configuration")
		}
		history, err := store.Open(cfg.History.Path, loggers.Base(logging.CategoryStore))
		if err != nil {
			return err
		}
		defer history.Close()

		comparisons, err := history.Latest(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(comparisons) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No comparisons recorded")
			return nil
		}

		t := newTable("Comparisons", "when", "collection", "type", "baseline", "margin", "regressions", "invocation")
		for _, c := range comparisons {
			t.AddRow(
				c.CreatedAt.Local().Format(time.DateTime),
				c.Collection,
				c.RunKind,
				c.BaselineDir,
				strconv.FormatFloat(c.Margin, 'g', -1, 64),
				strconv.Itoa(c.Regressions),
				shortID(c.InvocationID))
		}
		fmt.Fprint(cmd.OutOrStdout(), t.View(defaultReportStyles()))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of comparisons to list")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
