// Package regression compares the artifacts of a run with a baseline from
// an earlier run of the same sweep. Evaluations must match exactly; timings
// may grow up to a relative margin.
package regression

import (
	"bytes"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"stdbench/internal/config"
	"stdbench/internal/logging"
	"stdbench/internal/run"
)

// Outcome is the result of a comparison. A regression is an outcome, not
// an error.
type Outcome struct {
	// Regressions counts regressed combinations.
	Regressions int
}

// Success reports whether nothing regressed.
func (o Outcome) Success() bool {
	return o.Regressions == 0
}

func (o Outcome) String() string {
	if o.Success() {
		return "Success"
	}
	return fmt.Sprintf("Regression(%d)", o.Regressions)
}

// MetricCheck is one compared timing metric.
type MetricCheck struct {
	Record    int
	Name      string
	Current   float64
	Baseline  float64
	Regressed bool
}

// Diagnostic describes the comparison of one combination.
type Diagnostic struct {
	Combination run.Combination
	Kind        config.RunKind
	Current     string
	Baseline    string
	Regressed   bool
	// Metrics is set for benchmark runs.
	Metrics []MetricCheck
}

// Detector compares runs against baselines.
type Detector struct {
	logger  *zap.Logger
	observe func(Diagnostic)
}

// NewDetector creates a Detector. observe, when non-nil, receives a
// diagnostic for every compared combination.
func NewDetector(logger *zap.Logger, observe func(Diagnostic)) *Detector {
	return &Detector{
		logger:  logging.Named(logger, logging.CategoryRegression),
		observe: observe,
	}
}

// CompareWithBaseline compares every combination of r, in sweep order, with
// the same-named artifact in baselineDir. margin is the tolerated relative
// slowdown for benchmark runs. Unreadable or unparsable artifacts are errors.
func (d *Detector) CompareWithBaseline(r *config.Run, baselineDir string, margin float64) (Outcome, error) {
	var outcome Outcome
	kind := run.ComparedKind(r.Kind)

	for _, c := range run.Sweep(r) {
		current := run.ArtifactPath(r.Output, c, kind)
		baseline := filepath.Join(baselineDir, BaselineName(current))
		diag := Diagnostic{Combination: c, Kind: r.Kind, Current: current, Baseline: baseline}

		var err error
		switch r.Kind {
		case config.Benchmark:
			err = d.compareBenchmark(&diag, margin)
		default:
			err = d.compareEvaluation(&diag)
		}
		if err != nil {
			return outcome, err
		}

		if diag.Regressed {
			outcome.Regressions++
		}
		if d.observe != nil {
			d.observe(diag)
		}
	}

	if outcome.Success() {
		d.logger.Info("No regressions", zap.String("collection", r.Collection.Name), zap.Stringer("type", r.Kind))
	} else {
		d.logger.Warn("Regressions detected",
			zap.String("collection", r.Collection.Name),
			zap.Stringer("type", r.Kind),
			zap.Int("count", outcome.Regressions))
	}
	return outcome, nil
}

func (d *Detector) compareEvaluation(diag *Diagnostic) error {
	current, err := readArtifact(diag.Current)
	if err != nil {
		return fmt.Errorf("failed to read current evaluation: %w", err)
	}
	baseline, err := readArtifact(diag.Baseline)
	if err != nil {
		return fmt.Errorf("failed to read baseline evaluation: %w", err)
	}
	if !bytes.Equal(current, baseline) {
		diag.Regressed = true
		d.logger.Warn("Evaluation differs from baseline",
			zap.String("current", diag.Current),
			zap.String("baseline", diag.Baseline))
	}
	return nil
}

func (d *Detector) compareBenchmark(diag *Diagnostic, margin float64) error {
	current, err := loadBenchmark(diag.Current)
	if err != nil {
		return err
	}
	baseline, err := loadBenchmark(diag.Baseline)
	if err != nil {
		return err
	}
	if len(current) != len(baseline) {
		return fmt.Errorf("benchmark record count mismatch: %s has %d, %s has %d",
			diag.Current, len(current), diag.Baseline, len(baseline))
	}

	baseline, err = pairRecords(current, baseline)
	if err != nil {
		return fmt.Errorf("could not compare %s with %s: %w", diag.Current, diag.Baseline, err)
	}

	for i := range current {
		cur, base := current[i].Metrics(), baseline[i].Metrics()
		for m := range cur {
			check := MetricCheck{
				Record:    i,
				Name:      cur[m].Name,
				Current:   cur[m].Value,
				Baseline:  base[m].Value,
				Regressed: Exceeds(cur[m].Value, base[m].Value, margin),
			}
			if check.Regressed {
				diag.Regressed = true
				d.logger.Warn("Benchmark metric exceeds margin",
					zap.String("current", diag.Current),
					zap.String("baseline", diag.Baseline),
					zap.String("metric", check.Name),
					zap.Float64("current_value", check.Current),
					zap.Float64("baseline_value", check.Baseline),
					zap.Float64("margin", margin))
			}
			diag.Metrics = append(diag.Metrics, check)
		}
	}
	return nil
}

func loadBenchmark(path string) ([]BenchmarkResult, error) {
	data, err := readArtifact(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark: %w", err)
	}
	records, err := ParseBenchmark(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
