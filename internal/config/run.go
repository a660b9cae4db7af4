package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultScorer is used by runs that do not name a scorer.
const DefaultScorer = "bm25"

// TopicsFormat is the file format of a topics source.
type TopicsFormat int

const (
	// SimpleTopics files hold one "qid:query terms" per line and are used as is.
	SimpleTopics TopicsFormat = iota
	// TrecTopics files are TREC topic files; queries are extracted from one
	// of their fields before use.
	TrecTopics
)

func (f TopicsFormat) String() string {
	if f == TrecTopics {
		return "trec"
	}
	return "simple"
}

// TopicField selects the TREC topic field queries are extracted from.
type TopicField string

const (
	FieldTitle       TopicField = "title"
	FieldDescription TopicField = "desc"
	FieldNarrative   TopicField = "narr"
)

// Topics is one topic source of a run.
type Topics struct {
	Path   string
	Format TopicsFormat
	// Field is set for TREC topics only.
	Field TopicField
}

// RunKind distinguishes effectiveness runs from efficiency runs.
type RunKind int

const (
	// Evaluate runs score retrieval results with the relevance evaluator.
	Evaluate RunKind = iota
	// Benchmark runs record query latencies.
	Benchmark
)

func (k RunKind) String() string {
	if k == Benchmark {
		return "benchmark"
	}
	return "evaluate"
}

// Run is one experimental run: a sweep over algorithms, encodings and topic
// sources against a single collection.
type Run struct {
	Kind       RunKind
	Collection *Collection
	Algorithms []Algorithm
	Encodings  []Encoding
	Topics     []Topics

	// Qrels is the relevance judgment file. Evaluate runs only.
	Qrels string

	Scorer string

	// Output is the artifact path template; artifacts are written next to
	// it with a per-combination suffix.
	Output string
}

// rawTopics accepts either a bare path (simple format) or a mapping.
type rawTopics struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	Field  string `yaml:"field"`
}

func (t *rawTopics) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.Path = node.Value
		return nil
	}
	type plain rawTopics
	return node.Decode((*plain)(t))
}

func (t rawTopics) resolve() (Topics, error) {
	if t.Path == "" {
		return Topics{}, errors.New("topics path missing")
	}
	switch t.Format {
	case "", "simple":
		return Topics{Path: t.Path, Format: SimpleTopics}, nil
	case "trec":
		field := TopicField(t.Field)
		switch field {
		case "":
			field = FieldTitle
		case FieldTitle, FieldDescription, FieldNarrative:
		default:
			return Topics{}, fmt.Errorf("failed to parse trec topic field: %s", t.Field)
		}
		return Topics{Path: t.Path, Format: TrecTopics, Field: field}, nil
	default:
		return Topics{}, fmt.Errorf("invalid topics format: %s", t.Format)
	}
}

type rawRun struct {
	Collection string      `yaml:"collection"`
	Type       string      `yaml:"type"`
	Algorithms []string    `yaml:"algorithms"`
	Encodings  []string    `yaml:"encodings"`
	Topics     []rawTopics `yaml:"topics"`
	Qrels      string      `yaml:"qrels"`
	Scorer     string      `yaml:"scorer"`
	Output     string      `yaml:"output"`
}

func (r rawRun) resolve(collections map[string]*Collection, workdir string) (*Run, error) {
	if r.Collection == "" {
		return nil, errors.New("field collection missing or not string")
	}
	coll, ok := collections[r.Collection]
	if !ok {
		return nil, fmt.Errorf("collection %s not found in config", r.Collection)
	}

	run := &Run{
		Collection: coll,
		Qrels:      r.Qrels,
		Scorer:     r.Scorer,
		Output:     rooted(workdir, r.Output),
	}
	switch r.Type {
	case "evaluate":
		run.Kind = Evaluate
		if r.Qrels == "" {
			return nil, errors.New("field qrels missing or not string")
		}
	case "benchmark":
		run.Kind = Benchmark
	case "":
		return nil, errors.New("field type missing or not string")
	default:
		return nil, fmt.Errorf("unknown run type: %s", r.Type)
	}
	if r.Output == "" {
		return nil, errors.New("field output missing or not string")
	}
	if run.Scorer == "" {
		run.Scorer = DefaultScorer
	}

	for _, alg := range r.Algorithms {
		run.Algorithms = append(run.Algorithms, Algorithm(alg))
	}
	if len(run.Algorithms) == 0 {
		return nil, errors.New("run has no algorithms")
	}

	for _, enc := range r.Encodings {
		run.Encodings = append(run.Encodings, Encoding(enc))
	}
	if len(run.Encodings) == 0 {
		run.Encodings = append(run.Encodings, coll.Encodings...)
	}

	for i, t := range r.Topics {
		topics, err := t.resolve()
		if err != nil {
			return nil, fmt.Errorf("topics %d: %w", i, err)
		}
		run.Topics = append(run.Topics, topics)
	}
	if len(run.Topics) == 0 {
		return nil, errors.New("run has no topics")
	}

	return run, nil
}
