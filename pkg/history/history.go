// Package history records analysis results in a SQLite database so the
// complexity of a function can be followed across runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/l3aro/go-cfg-complexity/pkg/complexity"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source      TEXT    NOT NULL,
	digest      TEXT    NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	run_id        INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	function      TEXT    NOT NULL,
	complexity    INTEGER NOT NULL,
	terminals     INTEGER NOT NULL,
	closing_edges INTEGER NOT NULL,
	blocks        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_function ON results(function);
`

// Point is the complexity of one function as recorded by one run.
type Point struct {
	Source       string    `json:"source"`
	Function     string    `json:"function"`
	Digest       string    `json:"digest"`
	Complexity   int       `json:"complexity"`
	Terminals    int       `json:"terminals"`
	ClosingEdges int       `json:"closing_edges"`
	Blocks       int       `json:"blocks"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Store is a history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores the results of one run over source. digest identifies the
// analysed content.
func (s *Store) Record(ctx context.Context, source, digest string, results []complexity.Result, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source, digest, recorded_at) VALUES (?, ?, ?)`,
		source, digest, at.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, function, complexity, terminals, closing_edges, blocks) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, runID, r.Function, r.Complexity, r.Terminals, r.ClosingEdges, r.Blocks); err != nil {
			return fmt.Errorf("failed to record %s: %w", r.Function, err)
		}
	}

	return tx.Commit()
}

// Trend returns up to limit recorded points for function, newest first.
// A limit <= 0 returns every point.
func (s *Store) Trend(ctx context.Context, function string, limit int) ([]Point, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT runs.source, results.function, runs.digest, results.complexity,
		       results.terminals, results.closing_edges, results.blocks, runs.recorded_at
		FROM results JOIN runs ON runs.id = results.run_id
		WHERE results.function = ?
		ORDER BY runs.recorded_at DESC, runs.id DESC
		LIMIT ?`, function, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var (
			p  Point
			ns int64
		)
		if err := rows.Scan(&p.Source, &p.Function, &p.Digest, &p.Complexity,
			&p.Terminals, &p.ClosingEdges, &p.Blocks, &ns); err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}
		p.RecordedAt = time.Unix(0, ns)
		points = append(points, p)
	}
	return points, rows.Err()
}

// Prune deletes runs recorded before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE recorded_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}
