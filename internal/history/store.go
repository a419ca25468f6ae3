// Package history records verdicts so status changes can be tracked across
// runs.
package history

//go:generate go run go.uber.org/mock/mockgen -destination=mock_store.go -package=history . Store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benchgate/benchgate/internal/models"
	_ "modernc.org/sqlite"
)

// Run summarizes one recorded verdict.
type Run struct {
	RunID       string         `json:"run_id"`
	Suite       string         `json:"suite"`
	Mode        models.RunMode `json:"mode"`
	CreatedAt   time.Time      `json:"created_at"`
	Overall     models.Outcome `json:"overall"`
	Coverage    float64        `json:"coverage"`
	Passed      int            `json:"passed"`
	Considered  int            `json:"considered"`
	Regressions int            `json:"regressions"`
}

// ModelResult is one model's effective status in one recorded run.
type ModelResult struct {
	RunID      string         `json:"run_id"`
	Suite      string         `json:"suite"`
	Mode       models.RunMode `json:"mode"`
	CreatedAt  time.Time      `json:"created_at"`
	Status     models.Status  `json:"status"`
	Metric     *float64       `json:"metric,omitempty"`
	Diagnostic string         `json:"diagnostic,omitempty"`
}

// Flip counts how often a model changed status between consecutive runs.
type Flip struct {
	Model   string        `json:"model"`
	Flips   int           `json:"flips"`
	Runs    int           `json:"runs"`
	Current models.Status `json:"current"`
}

// Store persists verdicts.
type Store interface {
	// Record stores v and its rows. Recording the same run twice is an error.
	Record(ctx context.Context, v *models.Verdict) error
	// Recent returns up to limit runs for (suite, mode), newest first.
	Recent(ctx context.Context, suite string, mode models.RunMode, limit int) ([]Run, error)
	// ModelHistory returns up to limit results for model, newest first.
	ModelHistory(ctx context.Context, model string, limit int) ([]ModelResult, error)
	// Flips counts status changes per model over the last window runs of
	// (suite, mode). Only models that changed are returned.
	Flips(ctx context.Context, suite string, mode models.RunMode, window int) ([]Flip, error)
	Close() error
}

// ErrDuplicateRun is returned when a run id was already recorded.
var ErrDuplicateRun = errors.New("run already recorded")

const schema = `
CREATE TABLE IF NOT EXISTS verdicts (
	run_id TEXT PRIMARY KEY,
	suite TEXT NOT NULL,
	mode TEXT NOT NULL,
	created_at TEXT NOT NULL,
	overall TEXT NOT NULL,
	coverage REAL NOT NULL,
	passed INTEGER NOT NULL,
	considered INTEGER NOT NULL,
	regressions INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verdicts_suite_mode ON verdicts(suite, mode, created_at);

CREATE TABLE IF NOT EXISTS verdict_rows (
	run_id TEXT NOT NULL REFERENCES verdicts(run_id),
	position INTEGER NOT NULL,
	model TEXT NOT NULL,
	recorded TEXT NOT NULL,
	effective TEXT NOT NULL,
	metric REAL,
	diagnostic TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, model)
);
CREATE INDEX IF NOT EXISTS idx_verdict_rows_model ON verdict_rows(model);
`

// timeLayout is fixed-width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Store = (*SQLiteStore)(nil)

// Open creates or opens the history database at path.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("creating history tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Record(ctx context.Context, v *models.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verdicts WHERE run_id = ?`, v.RunID).Scan(&exists); err != nil {
		return fmt.Errorf("checking run %s: %w", v.RunID, err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, v.RunID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO verdicts (run_id, suite, mode, created_at, overall, coverage, passed, considered, regressions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.RunID, v.Suite, string(v.Mode), v.CreatedAt.UTC().Format(timeLayout), string(v.Overall),
		v.Coverage.Ratio, v.Coverage.Passed, v.Coverage.Considered, len(v.Regressions))
	if err != nil {
		return fmt.Errorf("inserting verdict: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verdict_rows (run_id, position, model, recorded, effective, metric, diagnostic)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing row insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range v.Rows {
		var metric sql.NullFloat64
		if r.Metric != nil {
			metric = sql.NullFloat64{Float64: *r.Metric, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, v.RunID, i, r.Model, string(r.Recorded), string(r.Effective), metric, r.Diagnostic); err != nil {
			return fmt.Errorf("inserting row %s: %w", r.Model, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing verdict: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, suite string, mode models.RunMode, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, suite, mode, created_at, overall, coverage, passed, considered, regressions
		 FROM verdicts WHERE suite = ? AND mode = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		suite, string(mode), normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var r Run
		var runMode, overall, createdAt string
		if err := rows.Scan(&r.RunID, &r.Suite, &runMode, &createdAt, &overall, &r.Coverage, &r.Passed, &r.Considered, &r.Regressions); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Mode = models.RunMode(runMode)
		r.Overall = models.Outcome(overall)
		if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp %q: %w", r.RunID, createdAt, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) ModelHistory(ctx context.Context, model string, limit int) ([]ModelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT v.run_id, v.suite, v.mode, v.created_at, r.effective, r.metric, r.diagnostic
		 FROM verdict_rows r JOIN verdicts v ON v.run_id = r.run_id
		 WHERE r.model = ?
		 ORDER BY v.created_at DESC, v.rowid DESC LIMIT ?`,
		model, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying model history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []ModelResult
	for rows.Next() {
		var m ModelResult
		var mode, createdAt, status string
		var metric sql.NullFloat64
		if err := rows.Scan(&m.RunID, &m.Suite, &mode, &createdAt, &status, &metric, &m.Diagnostic); err != nil {
			return nil, fmt.Errorf("scanning model result: %w", err)
		}
		m.Mode = models.RunMode(mode)
		m.Status = models.Status(status)
		if metric.Valid {
			m.Metric = models.Float(metric.Float64)
		}
		if m.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp %q: %w", m.RunID, createdAt, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Flips(ctx context.Context, suite string, mode models.RunMode, window int) ([]Flip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`WITH recent AS (
			SELECT run_id, created_at, rowid AS seq FROM verdicts
			WHERE suite = ? AND mode = ?
			ORDER BY created_at DESC, rowid DESC LIMIT ?
		 )
		 SELECT r.model, r.effective, r.position
		 FROM verdict_rows r JOIN recent ON recent.run_id = r.run_id
		 ORDER BY recent.created_at ASC, recent.seq ASC, r.position ASC`,
		suite, string(mode), normalizeLimit(window))
	if err != nil {
		return nil, fmt.Errorf("querying recent rows: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	byModel := make(map[string]*Flip)
	var order []string
	for rows.Next() {
		var model, status string
		var position int
		if err := rows.Scan(&model, &status, &position); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		f, ok := byModel[model]
		if !ok {
			f = &Flip{Model: model}
			byModel[model] = f
			order = append(order, model)
		}
		st := models.Status(status)
		if f.Runs > 0 && st != f.Current {
			f.Flips++
		}
		f.Current = st
		f.Runs++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var flips []Flip
	for _, model := range order {
		if f := byModel[model]; f.Flips > 0 {
			flips = append(flips, *f)
		}
	}
	return flips, nil
}

func normalizeLimit(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}
