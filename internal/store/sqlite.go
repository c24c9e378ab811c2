// Package store persists analysis runs and their per-node metrics in a local
// SQLite database so that runs can be listed and compared later.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/hubscan/internal/hubs"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrRunExists is returned when saving a run id that is already stored.
var ErrRunExists = errors.New("run already stored")

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id                    TEXT PRIMARY KEY,
    input                 TEXT NOT NULL,
    started_at            INTEGER NOT NULL,
    nodes                 INTEGER NOT NULL,
    edges                 INTEGER NOT NULL,
    hubs                  INTEGER NOT NULL,
    percentile            REAL NOT NULL,
    degree_threshold      REAL NOT NULL,
    betweenness_threshold REAL NOT NULL,
    duration_seconds      REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS node_metrics (
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    node        TEXT NOT NULL,
    degree      INTEGER NOT NULL,
    betweenness REAL NOT NULL,
    hub         INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, node)
);

CREATE INDEX IF NOT EXISTS idx_node_metrics_hubs ON node_metrics(run_id, hub);
`

// Run is the stored header of one analysis run.
type Run struct {
	ID                   string
	Input                string
	StartedAt            time.Time
	Nodes                int
	Edges                int
	Hubs                 int
	Percentile           float64
	DegreeThreshold      float64
	BetweennessThreshold float64
	Duration             time.Duration
}

// Store is a SQLite-backed run history in WAL mode.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, enables WAL mode and busy
// timeout, and creates the schema if it does not exist.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite has a single writer; one connection avoids SQLITE_BUSY between
	// pooled connections that would each need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	pragmas := []struct{ stmt, what string }{
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA busy_timeout=5000", "set busy timeout"},
		{"PRAGMA foreign_keys=ON", "enable foreign keys"},
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p.stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p.what, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRun stores the run header and one metric row per record in a single
// transaction. The hub flag of each row comes from sel.
func (s *Store) SaveRun(ctx context.Context, run Run, records []hubs.Record, sel hubs.Selection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx for run %s: %w", run.ID, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", run.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("store: check run %s: %w", run.ID, err)
	}
	if exists > 0 {
		return fmt.Errorf("store: save run %s: %w", run.ID, ErrRunExists)
	}

	const insertRun = `
		INSERT INTO runs (id, input, started_at, nodes, edges, hubs, percentile,
			degree_threshold, betweenness_threshold, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun,
		run.ID, run.Input, run.StartedAt.UnixNano(), run.Nodes, run.Edges, run.Hubs,
		run.Percentile, run.DegreeThreshold, run.BetweennessThreshold, run.Duration.Seconds(),
	); err != nil {
		return fmt.Errorf("store: insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO node_metrics (run_id, node, degree, betweenness, hub) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: prepare node insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, run.ID, r.Node, r.Degree, r.Betweenness, sel.Contains(r.Node)); err != nil {
			return fmt.Errorf("store: insert node %q: %w", r.Node, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit run %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	const q = `
		SELECT id, input, started_at, nodes, edges, hubs, percentile,
			degree_threshold, betweenness_threshold, duration_seconds
		FROM runs ORDER BY started_at DESC, id LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			started int64
			secs    float64
		)
		if err := rows.Scan(&r.ID, &r.Input, &started, &r.Nodes, &r.Edges, &r.Hubs,
			&r.Percentile, &r.DegreeThreshold, &r.BetweennessThreshold, &secs); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started).UTC()
		r.Duration = time.Duration(secs * float64(time.Second))
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

// Hubs returns the hub records of a run, highest betweenness first.
func (s *Store) Hubs(ctx context.Context, runID string) ([]hubs.Record, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", runID).Scan(&n); err != nil {
		return nil, fmt.Errorf("store: lookup run %s: %w", runID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("store: %w: %s", ErrRunNotFound, runID)
	}

	const q = `
		SELECT node, degree, betweenness FROM node_metrics
		WHERE run_id = ? AND hub = 1
		ORDER BY betweenness DESC, degree DESC, node`
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("store: hubs of %s: %w", runID, err)
	}
	defer rows.Close()

	out := []hubs.Record{}
	for rows.Next() {
		var r hubs.Record
		if err := rows.Scan(&r.Node, &r.Degree, &r.Betweenness); err != nil {
			return nil, fmt.Errorf("store: scan hub: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: hubs of %s: %w", runID, err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
