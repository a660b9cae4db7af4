// Command stdbench is the standard benchmark for regression tests of the
// search engine toolchain: it builds indexes, runs experiments and compares
// their results with a baseline.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stdbench/internal/config"
	"stdbench/internal/executor"
	"stdbench/internal/logging"
	"stdbench/internal/stage"
)

var (
	configPath  string
	suppress    []string
	collections []string
	noScorer    bool
	verbose     bool
	printStages bool

	// Set by PersistentPreRunE for commands that need a configuration.
	cfg          *config.Config
	loggers      *logging.Loggers
	logger       *zap.Logger
	toolchain    executor.Executor
	invocationID string
)

// errRegressions signals a comparison that found regressions; main exits
// with status 1 without printing it again.
var errRegressions = errors.New("regressions detected")

var rootCmd = &cobra.Command{
	Use:   "stdbench",
	Short: "Standard benchmark for search engine regression tests",
	Long: `stdbench builds indexes for the configured collections and executes the
configured runs against them. Without a subcommand it builds and then runs.

Stages can be skipped with --suppress (see "stdbench stages"):
  stdbench --config bench.yml --suppress parse --suppress invert`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if loggers != nil {
			_ = loggers.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := buildCollections(cmd.Context()); err != nil {
			return err
		}
		return processRuns(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "stdbench.yml", "Experiment configuration file")
	rootCmd.PersistentFlags().StringArrayVar(&suppress, "suppress", nil, "Suppress a stage (repeatable)")
	rootCmd.PersistentFlags().StringSliceVar(&collections, "collections", nil, "Only process the named collections")
	rootCmd.PersistentFlags().BoolVar(&noScorer, "no-scorer", false, "Do not pass --scorer to query tools")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&printStages, "print-stages", false, "Print stage names and exit")

	rootCmd.AddCommand(buildCmd, runCmd, compareCmd, baselineCmd, historyCmd, stagesCmd)
}

// setup loads the configuration and prepares loggers and the executor.
func setup(cmd *cobra.Command, args []string) error {
	if printStages {
		printStageNames(cmd)
		os.Exit(0)
	}
	if cmd.Annotations[annotationNoConfig] == "true" {
		return nil
	}

	boot := zap.NewNop()
	if verbose {
		boot, _ = zap.NewDevelopment()
	}

	var err error
	cfg, err = config.Load(configPath, boot)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if noScorer {
		cfg.UseScorer = false
	}

	loggers, err = logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	invocationID = uuid.NewString()
	loggers = loggers.With(zap.String("invocation", invocationID))
	logger = loggers.Get(logging.CategoryBoot)

	for _, name := range suppress {
		s, err := stage.Parse(name)
		if err != nil {
			logger.Warn("ignoring suppressed stage", zap.Error(err))
			continue
		}
		cfg.Suppressed.Suppress(s)
	}
	logger.Debug("configuration loaded",
		zap.String("path", configPath),
		zap.String("workdir", cfg.Workdir),
		zap.Int("collections", len(cfg.Collections)),
		zap.Int("runs", len(cfg.Runs)),
		zap.Stringers("suppressed", cfg.Suppressed.Suppressed()))

	toolchain, err = executor.FromSource(cfg.Source, loggers.Base(logging.CategoryExecutor))
	return err
}

const annotationNoConfig = "no-config"

func printStageNames(cmd *cobra.Command) {
	for _, s := range stage.All() {
		fmt.Fprintln(cmd.OutOrStdout(), s)
	}
}

// selectedRuns returns the runs of the collections chosen with --collections.
func selectedRuns() ([]*config.Collection, []*config.Run, error) {
	colls, err := cfg.SelectCollections(collections)
	if err != nil {
		return nil, nil, err
	}
	return colls, cfg.RunsFor(colls), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errRegressions) {
			fmt.Fprintln(os.Stderr, "Error:", describe(err))
		}
		os.Exit(1)
	}
}

// describe renders err, adding the exit status and stderr of a failed tool.
func describe(err error) string {
	var te *executor.ToolError
	if !errors.As(err, &te) {
		return err.Error()
	}
	detail := strings.TrimPrefix(te.Detail(), te.Message)
	return err.Error() + detail
}
