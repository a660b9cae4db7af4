// Package logging builds the zap loggers used across stdbench.
//
// Every component logs through a named category child of one root logger,
// so output lines carry the subsystem that produced them ("build", "run",
// "tactile", ...). Categories can be switched off individually from the
// configuration file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // CLI start-up and config loading
	CategoryTactile    Category = "tactile"    // Process pipelines
	CategoryExecutor   Category = "executor"   // Toolchain invocations
	CategoryBuild      Category = "build"      // Index builds
	CategoryRun        Category = "run"        // Run sweeps
	CategoryRegression Category = "regression" // Baseline comparison
	CategoryStore      Category = "store"      // History ledger
)

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string `yaml:"level"`

	// Format is "text" (console encoder) or "json". Empty means text.
	Format string `yaml:"format"`

	// File, when set, receives log output instead of stderr.
	File string `yaml:"file"`

	// Categories disables a category when mapped to false. Categories
	// absent from the map are enabled.
	Categories map[string]bool `yaml:"categories"`
}

// Loggers hands out category loggers derived from one root.
type Loggers struct {
	root     *zap.Logger
	disabled map[Category]bool
}

// ParseLevel converts a level name into a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

// New builds the root logger described by cfg.
func New(cfg Config) (*Loggers, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zcfg zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", "text", "console":
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		zcfg = zap.NewProductionConfig()
		zcfg.Sampling = nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableStacktrace = true

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zcfg.OutputPaths = []string{cfg.File}
		zcfg.ErrorOutputPaths = []string{cfg.File}
	} else {
		zcfg.OutputPaths = []string{"stderr"}
		zcfg.ErrorOutputPaths = []string{"stderr"}
	}

	root, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return FromLogger(root, cfg.Categories), nil
}

// FromLogger wraps an existing logger. A nil logger becomes a no-op.
func FromLogger(root *zap.Logger, categories map[string]bool) *Loggers {
	if root == nil {
		root = zap.NewNop()
	}
	disabled := make(map[Category]bool)
	for name, enabled := range categories {
		if !enabled {
			disabled[Category(name)] = true
		}
	}
	return &Loggers{root: root, disabled: disabled}
}

// Nop returns Loggers that discard everything.
func Nop() *Loggers {
	return FromLogger(nil, nil)
}

// Root returns the uncategorised root logger.
func (l *Loggers) Root() *zap.Logger {
	return l.root
}

// With returns Loggers whose root carries the given fields.
func (l *Loggers) With(fields ...zap.Field) *Loggers {
	return &Loggers{root: l.root.With(fields...), disabled: l.disabled}
}

// Get returns the logger for a category, or a no-op logger when the
// category is disabled.
func (l *Loggers) Get(cat Category) *zap.Logger {
	if l.disabled[cat] {
		return zap.NewNop()
	}
	return l.root.Named(string(cat))
}

// Enabled reports whether cat logs at all.
func (l *Loggers) Enabled(cat Category) bool {
	return !l.disabled[cat]
}

// Base returns the root logger for a component that names itself with cat,
// or a no-op logger when cat is disabled.
func (l *Loggers) Base(cat Category) *zap.Logger {
	if l.disabled[cat] {
		return zap.NewNop()
	}
	return l.root
}

// Sync flushes buffered output.
func (l *Loggers) Sync() error {
	return l.root.Sync()
}

// Named returns a category child of logger, substituting a no-op logger for nil.
func Named(logger *zap.Logger, cat Category) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(string(cat))
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
