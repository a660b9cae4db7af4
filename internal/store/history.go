// Package store persists the history of baseline comparisons in SQLite, so
// that timing drift can be followed across invocations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stdbench/internal/logging"

	_ "modernc.org/sqlite"
)

// History is the comparison ledger.
//
// Storage location: <workdir>/stdbench.db unless configured otherwise.
type History struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	logger *zap.Logger
}

// Comparison is one run compared against one baseline.
type Comparison struct {
	ID           string
	InvocationID string
	Collection   string
	RunKind      string
	BaselineDir  string
	Margin       float64
	Regressions  int
	CreatedAt    time.Time

	// Samples are the benchmark metrics compared; empty for evaluate runs.
	Samples []Sample
}

// Sample is one compared benchmark metric.
type Sample struct {
	Algorithm  string
	Encoding   string
	TopicIndex int
	Metric     string
	Current    float64
	Baseline   float64
	Regressed  bool
}

// Open opens, creating if needed, the history database at path.
func Open(path string, logger *zap.Logger) (*History, error) {
	logger = logging.Named(logger, logging.CategoryStore)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	h := &History{db: db, dbPath: path, logger: logger}
	if err := h.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	logger.Debug("History opened", zap.String("path", path))
	return h, nil
}

// initialize creates the database schema.
func (h *History) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS comparisons (
		id TEXT PRIMARY KEY,
		invocation_id TEXT NOT NULL,
		collection TEXT NOT NULL,
		run_kind TEXT NOT NULL,
		baseline_dir TEXT NOT NULL,
		margin REAL NOT NULL,
		regressions INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS benchmark_samples (
		comparison_id TEXT NOT NULL REFERENCES comparisons(id) ON DELETE CASCADE,
		algorithm TEXT NOT NULL,
		encoding TEXT NOT NULL,
		topic_index INTEGER NOT NULL,
		metric TEXT NOT NULL,
		current REAL NOT NULL,
		baseline REAL NOT NULL,
		regressed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_comparisons_created ON comparisons(created_at);
	CREATE INDEX IF NOT EXISTS idx_samples_comparison ON benchmark_samples(comparison_id);
	`
	_, err := h.db.Exec(schema)
	return err
}

// Path returns the database file.
func (h *History) Path() string {
	return h.dbPath
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// RecordComparison stores c and its samples in one transaction. An empty ID
// is filled with a new UUID and a zero CreatedAt with the current time.
func (h *History) RecordComparison(ctx context.Context, c *Comparison) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comparisons
		(id, invocation_id, collection, run_kind, baseline_dir, margin, regressions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.InvocationID, c.Collection, c.RunKind, c.BaselineDir,
		c.Margin, c.Regressions, c.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to store comparison: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO benchmark_samples
		(comparison_id, algorithm, encoding, topic_index, metric, current, baseline, regressed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range c.Samples {
		regressed := 0
		if s.Regressed {
			regressed = 1
		}
		if _, err := stmt.ExecContext(ctx, c.ID, s.Algorithm, s.Encoding, s.TopicIndex,
			s.Metric, s.Current, s.Baseline, regressed); err != nil {
			return fmt.Errorf("failed to store sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit comparison: %w", err)
	}
	h.logger.Debug("Stored comparison",
		zap.String("id", c.ID),
		zap.String("collection", c.Collection),
		zap.Int("samples", len(c.Samples)))
	return nil
}

// Latest returns up to limit comparisons, newest first, without samples.
func (h *History) Latest(ctx context.Context, limit int) ([]Comparison, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, invocation_id, collection, run_kind, baseline_dir, margin, regressions, created_at
		FROM comparisons ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comparison
	for rows.Next() {
		var (
			c       Comparison
			created int64
		)
		if err := rows.Scan(&c.ID, &c.InvocationID, &c.Collection, &c.RunKind,
			&c.BaselineDir, &c.Margin, &c.Regressions, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(0, created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Samples returns the benchmark samples of a comparison in insertion order.
func (h *History) Samples(ctx context.Context, comparisonID string) ([]Sample, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rows, err := h.db.QueryContext(ctx, `
		SELECT algorithm, encoding, topic_index, metric, current, baseline, regressed
		FROM benchmark_samples WHERE comparison_id = ? ORDER BY rowid`, comparisonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			s         Sample
			regressed int
		)
		if err := rows.Scan(&s.Algorithm, &s.Encoding, &s.TopicIndex, &s.Metric,
			&s.Current, &s.Baseline, &regressed); err != nil {
			return nil, err
		}
		s.Regressed = regressed != 0
		out = append(out, s)
	}
	return out, rows.Err()
}
