package build

import (
	"fmt"
	"path/filepath"
	"strconv"

	"stdbench/internal/config"
	"stdbench/internal/executor"
	"stdbench/internal/tactile"
)

// parseSpec describes how raw documents of one collection kind reach the parser.
type parseSpec struct {
	pattern   string // relative to the collection directory
	reader    string // program streaming the files to stdout
	format    string // parse_collection -f value
	batchSize int
}

func specFor(kind config.CollectionKind) (parseSpec, error) {
	switch kind {
	case config.WashingtonPost:
		return parseSpec{pattern: "data/*.jl", reader: "cat", format: "wapo", batchSize: 1000}, nil
	case config.TrecWeb:
		return parseSpec{pattern: "GX*/*.gz", reader: "zcat", format: "trecweb", batchSize: 1000}, nil
	case config.Warc:
		return parseSpec{pattern: "*/*.warc.gz", reader: "zcat", format: "warc", batchSize: 10000}, nil
	default:
		return parseSpec{}, fmt.Errorf("unknown collection type: %s", kind)
	}
}

// resolveFiles expands pattern, failing when nothing matches.
func resolveFiles(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("could not resolve any files for pattern: %s", pattern)
	}
	return files, nil
}

// ParseCommand builds the pipeline that streams the collection's raw files
// into parse_collection, producing the forward index.
func ParseCommand(exec executor.Executor, coll *config.Collection) (*tactile.Pipeline, error) {
	spec, err := specFor(coll.Kind)
	if err != nil {
		return nil, err
	}
	files, err := resolveFiles(filepath.Join(coll.CollectionDir, spec.pattern))
	if err != nil {
		return nil, err
	}

	parse := exec.Command("parse_collection").Args(
		"-o", coll.ForwardIndex,
		"-f", spec.format,
		"--stemmer", "porter2",
		"--content-parser", "html",
		"--batch-size", strconv.Itoa(spec.batchSize),
	)
	return tactile.New(spec.reader).Args(files...).PipePipeline(parse), nil
}
