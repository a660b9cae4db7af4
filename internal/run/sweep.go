package run

import (
	"strconv"

	"stdbench/internal/config"
)

// ArtifactKind is the suffix of a per-combination output file.
type ArtifactKind string

const (
	// Results holds the canonically sorted TREC run of an evaluate combination.
	Results ArtifactKind = "results"
	// TrecEval holds the relevance evaluator output of an evaluate combination.
	TrecEval ArtifactKind = "trec_eval"
	// Bench holds the raw timing output of a benchmark combination.
	Bench ArtifactKind = "bench"
)

// Combination is one point of a run sweep.
type Combination struct {
	Algorithm  config.Algorithm
	Encoding   config.Encoding
	TopicIndex int
}

// Sweep enumerates the combinations of run: algorithms outermost, then
// encodings, then topic sources. Artifact names depend on this order.
func Sweep(run *config.Run) []Combination {
	out := make([]Combination, 0, len(run.Algorithms)*len(run.Encodings)*len(run.Topics))
	for _, alg := range run.Algorithms {
		for _, enc := range run.Encodings {
			for i := range run.Topics {
				out = append(out, Combination{Algorithm: alg, Encoding: enc, TopicIndex: i})
			}
		}
	}
	return out
}

// ArtifactPath returns <template>.<algorithm>.<encoding>.<topic index>.<kind>.
func ArtifactPath(template string, c Combination, kind ArtifactKind) string {
	return template + "." + string(c.Algorithm) + "." + string(c.Encoding) + "." +
		strconv.Itoa(c.TopicIndex) + "." + string(kind)
}

// ArtifactKinds lists the artifacts a run of kind k leaves per combination.
func ArtifactKinds(k config.RunKind) []ArtifactKind {
	if k == config.Benchmark {
		return []ArtifactKind{Bench}
	}
	return []ArtifactKind{Results, TrecEval}
}

// ComparedKind is the artifact a regression check reads for runs of kind k.
func ComparedKind(k config.RunKind) ArtifactKind {
	if k == config.Benchmark {
		return Bench
	}
	return TrecEval
}
