package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stdbench/internal/config"
	"stdbench/internal/logging"
	"stdbench/internal/regression"
	"stdbench/internal/store"
)

var (
	baselineDir string
	margin      float64
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare run artifacts with a baseline",
	Long: `Compare every configured run with the artifacts saved in a baseline
directory. Evaluation results must match exactly; benchmark timings may
exceed the baseline by at most --margin (a fraction, 0.1 is 10%).

Exits with status 1 when any combination regressed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if baselineDir == "" {
			return fmt.Errorf("--baseline is required")
		}
		if margin < 0 {
			return fmt.Errorf("--margin must not be negative: %g", margin)
		}
		regressions, err := compareRuns(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		if regressions > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), defaultReportStyles().Failure.Render(
				fmt.Sprintf("%d regressed combination(s)", regressions)))
			return errRegressions
		}
		fmt.Fprintln(cmd.OutOrStdout(), defaultReportStyles().Success.Render("No regressions"))
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&baselineDir, "baseline", "", "Directory holding baseline artifacts")
	compareCmd.Flags().Float64Var(&margin, "margin", 0.1, "Tolerated relative slowdown of benchmark metrics")
}

// compareRuns compares every selected run, renders a report and records the
// comparisons in the history ledger. It returns the regressed combination count.
func compareRuns(ctx context.Context, cmd *cobra.Command) (int, error) {
	_, runs, err := selectedRuns()
	if err != nil {
		return 0, err
	}
	if err := regression.CheckBaselineNames(runs); err != nil {
		return 0, err
	}

	var history *store.History
	if !cfg.History.Disabled {
		history, err = store.Open(cfg.History.Path, loggers.Base(logging.CategoryStore))
		if err != nil {
			return 0, err
		}
		defer history.Close()
	}

	styles := defaultReportStyles()
	total := 0
	for i, r := range runs {
		report := newTable(
			fmt.Sprintf("%s %s run %d", r.Collection.Name, r.Kind, i),
			"algorithm", "encoding", "topics", "metric", "current", "baseline", "status")
		var samples []store.Sample

		detector := regression.NewDetector(loggers.Base(logging.CategoryRegression), func(d regression.Diagnostic) {
			addDiagnostic(report, d)
			samples = append(samples, diagnosticSamples(d)...)
		})
		outcome, err := detector.CompareWithBaseline(r, baselineDir, margin)
		if err != nil {
			return total, fmt.Errorf("[%s] failed to compare run %d: %w", r.Collection.Name, i, err)
		}
		total += outcome.Regressions
		fmt.Fprint(cmd.OutOrStdout(), report.View(styles))
		fmt.Fprintln(cmd.OutOrStdout())

		if history != nil {
			record := &store.Comparison{
				InvocationID: invocationID,
				Collection:   r.Collection.Name,
				RunKind:      r.Kind.String(),
				BaselineDir:  baselineDir,
				Margin:       margin,
				Regressions:  outcome.Regressions,
				Samples:      samples,
			}
			if err := history.RecordComparison(ctx, record); err != nil {
				// The comparison itself succeeded.
				logger.Warn("failed to record comparison", zap.Error(err))
			}
		}
	}
	return total, nil
}

func addDiagnostic(t *table, d regression.Diagnostic) {
	c := d.Combination
	topic := strconv.Itoa(c.TopicIndex)
	if d.Kind != config.Benchmark {
		t.AddRow(string(c.Algorithm), string(c.Encoding), topic, "trec_eval", "", "", status(d.Regressed))
		return
	}
	for _, m := range d.Metrics {
		t.AddRow(string(c.Algorithm), string(c.Encoding), topic, metricName(m),
			formatMetric(m.Current), formatMetric(m.Baseline), status(m.Regressed))
	}
}

func diagnosticSamples(d regression.Diagnostic) []store.Sample {
	samples := make([]store.Sample, 0, len(d.Metrics))
	for _, m := range d.Metrics {
		samples = append(samples, store.Sample{
			Algorithm:  string(d.Combination.Algorithm),
			Encoding:   string(d.Combination.Encoding),
			TopicIndex: d.Combination.TopicIndex,
			Metric:     metricName(m),
			Current:    m.Current,
			Baseline:   m.Baseline,
			Regressed:  m.Regressed,
		})
	}
	return samples
}

// metricName qualifies metrics of every record after the first.
func metricName(m regression.MetricCheck) string {
	if m.Record == 0 {
		return m.Name
	}
	return fmt.Sprintf("%s#%d", m.Name, m.Record)
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
