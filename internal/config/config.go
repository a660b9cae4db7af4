// Package config loads the stdbench experiment configuration: the working
// directory, the toolchain source, the tested collections and the runs.
//
// Everything is resolved once at load time. Relative index and output paths
// are rooted at the working directory and the returned values are not
// modified afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"stdbench/internal/logging"
	"stdbench/internal/stage"
)

// Environment variables overriding file settings.
const (
	EnvWorkdir  = "STDBENCH_WORKDIR"
	EnvTrecEval = "STDBENCH_TREC_EVAL"
	EnvLogLevel = "STDBENCH_LOG_LEVEL"
)

// DefaultHistoryFile is the history database name inside the workdir.
const DefaultHistoryFile = "stdbench.db"

// HistoryConfig configures the comparison history ledger.
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
}

// Config is a fully resolved experiment configuration.
type Config struct {
	// Workdir roots every relative index and output path.
	Workdir string

	Source      Source
	Collections []*Collection
	Runs        []*Run

	// Suppressed holds stages suppressed from the file; the CLI adds more.
	Suppressed *stage.Controller

	// UseScorer passes --scorer to query tools. Older toolchains reject it.
	UseScorer bool

	// TrecEval is the relevance evaluator program.
	TrecEval string

	Logging logging.Config
	History HistoryConfig
}

// fileConfig is the on-disk layout.
type fileConfig struct {
	Workdir     string         `yaml:"workdir"`
	Source      Source         `yaml:"source"`
	Collections []yaml.Node    `yaml:"collections"`
	Runs        []rawRun       `yaml:"runs"`
	Suppress    []string       `yaml:"suppress"`
	UseScorer   *bool          `yaml:"use_scorer"`
	TrecEval    string         `yaml:"trec_eval"`
	Logging     logging.Config `yaml:"logging"`
	History     HistoryConfig  `yaml:"history"`
}

// DefaultConfig returns the settings used for keys absent from the file.
func DefaultConfig() *Config {
	return &Config{
		Source:     Source{Type: SourceSystem},
		Suppressed: stage.NewController(),
		UseScorer:  true,
		TrecEval:   "trec_eval",
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and resolves a configuration file. Malformed collection
// entries are logged and skipped; any other problem is an error.
func Load(path string, logger *zap.Logger) (*Config, error) {
	logger = logging.OrNop(logger)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, logger)
}

// Parse resolves a configuration from YAML content.
func Parse(data []byte, logger *zap.Logger) (*Config, error) {
	logger = logging.OrNop(logger)

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not parse YAML file: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Workdir = raw.Workdir
	if raw.Source.Type != "" {
		cfg.Source = raw.Source
	}
	if raw.UseScorer != nil {
		cfg.UseScorer = *raw.UseScorer
	}
	if raw.TrecEval != "" {
		cfg.TrecEval = raw.TrecEval
	}
	if raw.Logging.Level != "" {
		cfg.Logging.Level = raw.Logging.Level
	}
	if raw.Logging.Format != "" {
		cfg.Logging.Format = raw.Logging.Format
	}
	cfg.Logging.File = raw.Logging.File
	cfg.Logging.Categories = raw.Logging.Categories
	cfg.History = raw.History

	cfg.applyEnvOverrides()

	if cfg.Workdir == "" {
		return nil, errors.New("missing or corrupted workdir")
	}
	workdir, err := filepath.Abs(cfg.Workdir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workdir: %w", err)
	}
	cfg.Workdir = workdir

	if err := cfg.Source.Validate(); err != nil {
		return nil, err
	}
	if cfg.Source.Type == SourcePath {
		cfg.Source.Path = rooted(workdir, cfg.Source.Path)
	}

	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryFile
	}
	cfg.History.Path = rooted(workdir, cfg.History.Path)
	if cfg.Logging.File != "" {
		cfg.Logging.File = rooted(workdir, cfg.Logging.File)
	}

	for _, name := range raw.Suppress {
		s, err := stage.Parse(name)
		if err != nil {
			logger.Warn("ignoring suppressed stage", zap.Error(err))
			continue
		}
		cfg.Suppressed.Suppress(s)
	}

	byName, err := cfg.parseCollections(raw.Collections, logger)
	if err != nil {
		return nil, err
	}

	for i, r := range raw.Runs {
		run, err := r.resolve(byName, workdir)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run %d: %w", i, err)
		}
		cfg.Runs = append(cfg.Runs, run)
	}

	return cfg, nil
}

func (c *Config) parseCollections(nodes []yaml.Node, logger *zap.Logger) (map[string]*Collection, error) {
	if len(nodes) == 0 {
		return nil, errors.New("missing or corrupted collections config")
	}

	byName := make(map[string]*Collection, len(nodes))
	for i := range nodes {
		var raw rawCollection
		if err := nodes[i].Decode(&raw); err != nil {
			logger.Error("Unable to parse collection config", zap.Int("line", nodes[i].Line), zap.Error(err))
			continue
		}
		coll, err := raw.resolve(c.Workdir)
		if err != nil {
			logger.Error("Unable to parse collection config", zap.Int("line", nodes[i].Line), zap.Error(err))
			continue
		}
		if _, dup := byName[coll.Name]; dup {
			logger.Error("Unable to parse collection config", zap.String("collection", coll.Name), zap.Error(errors.New("duplicate collection name")))
			continue
		}
		byName[coll.Name] = coll
		c.Collections = append(c.Collections, coll)
	}

	if len(c.Collections) == 0 {
		return nil, errors.New("no correct collection configurations found")
	}
	return byName, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv(EnvWorkdir); dir != "" {
		c.Workdir = dir
	}
	if prog := os.Getenv(EnvTrecEval); prog != "" {
		c.TrecEval = prog
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}

// SelectCollections returns the collections named in names, in
// configuration order. An empty filter selects every collection.
func (c *Config) SelectCollections(names []string) ([]*Collection, error) {
	if len(names) == 0 {
		return c.Collections, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.TrimSpace(n)] = true
	}

	var out []*Collection
	for _, coll := range c.Collections {
		if wanted[coll.Name] {
			out = append(out, coll)
			delete(wanted, coll.Name)
		}
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for n := range wanted {
			missing = append(missing, n)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("unknown collections: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// RunsFor returns the runs whose collection is among collections.
func (c *Config) RunsFor(collections []*Collection) []*Run {
	selected := make(map[*Collection]bool, len(collections))
	for _, coll := range collections {
		selected[coll] = true
	}
	var out []*Run
	for _, run := range c.Runs {
		if selected[run.Collection] {
			out = append(out, run)
		}
	}
	return out
}
