package regression

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"stdbench/internal/config"
	"stdbench/internal/run"
)

func sweepRun(t *testing.T, kind config.RunKind) *config.Run {
	t.Helper()
	return &config.Run{
		Kind:       kind,
		Collection: &config.Collection{Name: "wapo"},
		Algorithms: []config.Algorithm{"wand", "maxscore"},
		Encodings:  []config.Encoding{"block_simdbp", "block_qmx"},
		Topics:     []config.Topics{{Path: "/topics"}},
		Output:     filepath.Join(t.TempDir(), "wapo"),
	}
}

func benchLine(avg, q50, q90, q95 float64) string {
	return fmt.Sprintf(`{"type":"block_simdbp","query":"wand","avg":%g,"q50":%g,"q90":%g,"q95":%g}`, avg, q50, q90, q95)
}

// writeArtifacts writes content(c) as the compared artifact of every
// combination into both the run output and the baseline directory.
func writeArtifacts(t *testing.T, r *config.Run, baselineDir string, current, baseline func(run.Combination) string) {
	t.Helper()
	if err := os.MkdirAll(baselineDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	kind := run.ComparedKind(r.Kind)
	for _, c := range run.Sweep(r) {
		path := run.ArtifactPath(r.Output, c, kind)
		if err := os.WriteFile(path, []byte(current(c)), 0o644); err != nil {
			t.Fatalf("write current: %v", err)
		}
		if err := os.WriteFile(filepath.Join(baselineDir, filepath.Base(path)), []byte(baseline(c)), 0o644); err != nil {
			t.Fatalf("write baseline: %v", err)
		}
	}
}

func same(s string) func(run.Combination) string {
	return func(run.Combination) string { return s }
}

func TestCompare_EvaluateIdentical(t *testing.T) {
	r := sweepRun(t, config.Evaluate)
	baseline := t.TempDir()
	writeArtifacts(t, r, baseline, same("map all 0.25\n"), same("map all 0.25\n"))

	var diags []Diagnostic
	outcome, err := NewDetector(nil, func(d Diagnostic) { diags = append(diags, d) }).
		CompareWithBaseline(r, baseline, 0)
	if err != nil {
		t.Fatalf("CompareWithBaseline: %v", err)
	}
	if !outcome.Success() || outcome.String() != "Success" {
		t.Fatalf("outcome = %v, want Success", outcome)
	}
	if len(diags) != 4 {
		t.Fatalf("diagnostics = %d, want 4", len(diags))
	}
	if diags[1].Combination != (run.Combination{Algorithm: "wand", Encoding: "block_qmx"}) {
		t.Errorf("diagnostics not in sweep order: %+v", diags[1].Combination)
	}
}

func TestCompare_EvaluateByteDifference(t *testing.T) {
	r := sweepRun(t, config.Evaluate)
	baseline := t.TempDir()
	current := func(c run.Combination) string {
		if c.Algorithm == "maxscore" {
			return "map all 0.25 \n"
		}
		return "map all 0.25\n"
	}
	writeArtifacts(t, r, baseline, current, same("map all 0.25\n"))

	core, logs := observer.New(zapcore.WarnLevel)
	outcome, err := NewDetector(zap.New(core), nil).CompareWithBaseline(r, baseline, 0.5)
	if err != nil {
		t.Fatalf("CompareWithBaseline: %v", err)
	}
	if outcome.Regressions != 2 || outcome.String() != "Regression(2)" {
		t.Fatalf("outcome = %v, want Regression(2)", outcome)
	}
	if got := logs.FilterMessage("Evaluation differs from baseline").Len(); got != 2 {
		t.Errorf("diagnostic lines = %d, want 2", got)
	}
}

func TestCompare_BenchmarkWithinMargin(t *testing.T) {
	r := sweepRun(t, config.Benchmark)
	baseline := t.TempDir()
	writeArtifacts(t, r, baseline,
		same("warming up\n"+benchLine(109, 109, 109, 109)+"\n"),
		same(benchLine(100, 100, 100, 100)+"\n"))

	outcome, err := NewDetector(nil, nil).CompareWithBaseline(r, baseline, 0.1)
	if err != nil {
		t.Fatalf("CompareWithBaseline: %v", err)
	}
	if !outcome.Success() {
		t.Fatalf("outcome = %v, want Success", outcome)
	}
}

func TestCompare_BenchmarkSingleQ95Regression(t *testing.T) {
	r := sweepRun(t, config.Benchmark)
	baseline := t.TempDir()
	current := func(c run.Combination) string {
		if c.Algorithm == "maxscore" && c.Encoding == "block_qmx" {
			return benchLine(100, 100, 100, 111) + "\n"
		}
		return benchLine(100, 100, 100, 100) + "\n"
	}
	writeArtifacts(t, r, baseline, current, same(benchLine(100, 100, 100, 100)+"\n"))

	var regressed []Diagnostic
	outcome, err := NewDetector(nil, func(d Diagnostic) {
		if d.Regressed {
			regressed = append(regressed, d)
		}
	}).CompareWithBaseline(r, baseline, 0.1)
	if err != nil {
		t.Fatalf("CompareWithBaseline: %v", err)
	}
	if outcome.Regressions != 1 {
		t.Fatalf("outcome = %v, want Regression(1)", outcome)
	}
	if len(regressed) != 1 {
		t.Fatalf("regressed diagnostics = %d, want 1", len(regressed))
	}
	var names []string
	for _, m := range regressed[0].Metrics {
		if m.Regressed {
			names = append(names, m.Name)
		}
	}
	if strings.Join(names, ",") != "q95" {
		t.Errorf("regressed metrics = %v, want [q95]", names)
	}
}

func TestCompare_BenchmarkRecordsMatchedByKey(t *testing.T) {
	r := sweepRun(t, config.Benchmark)
	r.Algorithms = r.Algorithms[:1]
	r.Encodings = r.Encodings[:1]
	baseline := t.TempDir()
	fast := `{"type":"block_simdbp","query":"wand","avg":10,"q50":10,"q90":10,"q95":10}`
	slow := `{"type":"block_qmx","query":"wand","avg":500,"q50":500,"q90":500,"q95":500}`
	writeArtifacts(t, r, baseline, same(slow+"\n"+fast+"\n"), same(fast+"\n"+slow+"\n"))

	var metrics []MetricCheck
	outcome, err := NewDetector(nil, func(d Diagnostic) {
		metrics = append(metrics, d.Metrics...)
	}).CompareWithBaseline(r, baseline, 0)
	if err != nil {
		t.Fatalf("CompareWithBaseline: %v", err)
	}
	if !outcome.Success() {
		t.Fatalf("outcome = %v, want Success", outcome)
	}
	if len(metrics) != 8 || metrics[0].Current != 500 || metrics[0].Baseline != 500 {
		t.Errorf("metrics = %+v, want record 0 paired with the block_qmx baseline", metrics)
	}
}

func TestCompare_CountsCombinationsNotMetrics(t *testing.T) {
	r := sweepRun(t, config.Benchmark)
	r.Algorithms = r.Algorithms[:1]
	r.Encodings = r.Encodings[:1]
	baseline := t.TempDir()
	writeArtifacts(t, r, baseline, same(benchLine(200, 200, 200, 200)), same(benchLine(100, 100, 100, 100)))

	outcome, err := NewDetector(nil, nil).CompareWithBaseline(r, baseline, 0)
	if err != nil {
		t.Fatalf("CompareWithBaseline: %v", err)
	}
	if outcome.Regressions != 1 {
		t.Fatalf("outcome = %v, want Regression(1)", outcome)
	}
}

func TestCompare_Errors(t *testing.T) {
	t.Run("missing baseline", func(t *testing.T) {
		r := sweepRun(t, config.Evaluate)
		baseline := t.TempDir()
		writeArtifacts(t, r, baseline, same("x"), same("x"))
		if _, err := NewDetector(nil, nil).CompareWithBaseline(r, filepath.Join(baseline, "missing"), 0); err == nil {
			t.Fatal("expected error for missing baseline")
		}
	})

	t.Run("missing current", func(t *testing.T) {
		r := sweepRun(t, config.Benchmark)
		if _, err := NewDetector(nil, nil).CompareWithBaseline(r, t.TempDir(), 0); err == nil {
			t.Fatal("expected error for missing artifacts")
		}
	})

	t.Run("no records", func(t *testing.T) {
		r := sweepRun(t, config.Benchmark)
		baseline := t.TempDir()
		writeArtifacts(t, r, baseline, same("garbage\n"), same(benchLine(1, 1, 1, 1)))
		_, err := NewDetector(nil, nil).CompareWithBaseline(r, baseline, 0)
		if err == nil || !strings.Contains(err.Error(), "no benchmark records found") {
			t.Fatalf("err = %v, want parse error", err)
		}
	})

	t.Run("record keys differ", func(t *testing.T) {
		r := sweepRun(t, config.Benchmark)
		baseline := t.TempDir()
		other := `{"type":"block_qmx","query":"maxscore","avg":1,"q50":1,"q90":1,"q95":1}`
		writeArtifacts(t, r, baseline, same(benchLine(1, 1, 1, 1)), same(other))
		_, err := NewDetector(nil, nil).CompareWithBaseline(r, baseline, 0)
		if err == nil || !strings.Contains(err.Error(), `no baseline record for type "block_simdbp" and query "wand"`) {
			t.Fatalf("err = %v, want key mismatch error", err)
		}
	})

	t.Run("record count mismatch", func(t *testing.T) {
		r := sweepRun(t, config.Benchmark)
		baseline := t.TempDir()
		line := benchLine(1, 1, 1, 1) + "\n"
		writeArtifacts(t, r, baseline, same(line+line), same(line))
		_, err := NewDetector(nil, nil).CompareWithBaseline(r, baseline, 0)
		if err == nil || !strings.Contains(err.Error(), "record count mismatch") {
			t.Fatalf("err = %v, want mismatch error", err)
		}
	})
}

func TestParseBenchmark(t *testing.T) {
	records, err := ParseBenchmark("Loading index\n" +
		`{"type":"block_qmx","query":"maxscore","avg":12.5,"q50":10,"q90":20,"q95":30}` + "\n{broken\n")
	if err != nil {
		t.Fatalf("ParseBenchmark: %v", err)
	}
	want := BenchmarkResult{Encoding: "block_qmx", Algorithm: "maxscore", Avg: 12.5, Q50: 10, Q90: 20, Q95: 30}
	if len(records) != 1 || records[0] != want {
		t.Fatalf("records = %+v, want [%+v]", records, want)
	}
	if _, err := ParseBenchmark(""); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestExceeds(t *testing.T) {
	cases := []struct {
		current, baseline, margin float64
		want                      bool
	}{
		{100, 100, 0, false},
		{101, 100, 0, true},
		{110, 100, 0.1, false},
		{111, 100, 0.1, true},
		{50, 100, 0, false},
	}
	for _, c := range cases {
		if got := Exceeds(c.current, c.baseline, c.margin); got != c.want {
			t.Errorf("Exceeds(%v, %v, %v) = %v, want %v", c.current, c.baseline, c.margin, got, c.want)
		}
	}
}
