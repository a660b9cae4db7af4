package regression

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BenchmarkResult is one timing record printed by the benchmark tool.
// Times are in microseconds.
type BenchmarkResult struct {
	Encoding  string  `json:"type"`
	Algorithm string  `json:"query"`
	Avg       float64 `json:"avg"`
	Q50       float64 `json:"q50"`
	Q90       float64 `json:"q90"`
	Q95       float64 `json:"q95"`
}

// recordKey identifies a record within one benchmark output.
type recordKey struct {
	encoding  string
	algorithm string
}

func (b BenchmarkResult) key() recordKey {
	return recordKey{encoding: b.Encoding, algorithm: b.Algorithm}
}

// pairRecords returns, for every current record, the baseline record with
// the same encoding and algorithm. Repeated keys pair in order of appearance.
// Both slices must have the same length.
func pairRecords(current, baseline []BenchmarkResult) ([]BenchmarkResult, error) {
	byKey := make(map[recordKey][]BenchmarkResult, len(baseline))
	for _, b := range baseline {
		byKey[b.key()] = append(byKey[b.key()], b)
	}
	paired := make([]BenchmarkResult, len(current))
	for i, c := range current {
		k := c.key()
		queue := byKey[k]
		if len(queue) == 0 {
			return nil, fmt.Errorf("no baseline record for type %q and query %q", k.encoding, k.algorithm)
		}
		paired[i], byKey[k] = queue[0], queue[1:]
	}
	return paired, nil
}

// Metric is a named timing value.
type Metric struct {
	Name  string
	Value float64
}

// Metrics returns the compared metrics in a fixed order.
func (b BenchmarkResult) Metrics() []Metric {
	return []Metric{
		{"avg", b.Avg},
		{"q50", b.Q50},
		{"q90", b.Q90},
		{"q95", b.Q95},
	}
}

// ParseBenchmark extracts the JSON records from benchmark output. Lines that
// are not JSON objects are progress output and are skipped.
func ParseBenchmark(text string) ([]BenchmarkResult, error) {
	var out []BenchmarkResult
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var rec BenchmarkResult
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, errors.New("no benchmark records found")
	}
	return out, nil
}

// Exceeds reports whether current is slower than baseline by more than margin,
// a fraction of baseline.
func Exceeds(current, baseline, margin float64) bool {
	return current-baseline*(1+margin) > 0
}
