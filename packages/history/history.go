// Package history keeps a record of flow runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/output"
	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get when no run has the given ID.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	state         TEXT NOT NULL,
	success       INTEGER NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	steps_passed  INTEGER NOT NULL,
	steps_failed  INTEGER NOT NULL,
	steps_skipped INTEGER NOT NULL,
	rules_passed  INTEGER NOT NULL,
	rules_failed  INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL,
	started_at    INTEGER NOT NULL,
	report        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);
`

// Run is one stored flow run.
type Run struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	State        string          `json:"state"`
	Success      bool            `json:"success"`
	Error        string          `json:"error,omitempty"`
	StepsPassed  int             `json:"stepsPassed"`
	StepsFailed  int             `json:"stepsFailed"`
	StepsSkipped int             `json:"stepsSkipped"`
	RulesPassed  int             `json:"rulesPassed"`
	RulesFailed  int             `json:"rulesFailed"`
	Duration     time.Duration   `json:"duration"`
	StartedAt    time.Time       `json:"startedAt"`
	Report       json.RawMessage `json:"report,omitempty"`
}

// Store is a run history backed by SQLite.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Open opens (and creates if needed) the history database.
// Accepted forms:
// - sqlite://path/to/history.db
// - sqlite:./history.db
// - path/to/history.db
func Open(connectionString string) (*Store, error) {
	dsn, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db, queryTimeout: 30 * time.Second}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save records a finished run. Saving the same run twice replaces it.
func (s *Store) Save(ctx context.Context, result *flow.Result) error {
	report, err := json.Marshal(output.ToJSON(result))
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}

	passed, failed, skipped := result.Counts()
	rulesPassed, rulesFailed := result.RuleCounts()
	errText := ""
	if result.Error != nil {
		errText = result.Error.Error()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			id, name, state, success, error,
			steps_passed, steps_failed, steps_skipped,
			rules_passed, rules_failed,
			duration_ms, started_at, report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID.String(), result.Name, string(result.State), result.Success, errText,
		passed, failed, skipped,
		rulesPassed, rulesFailed,
		result.Duration.Milliseconds(), result.StartedAt.UnixNano(), string(report),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", result.ID, err)
	}
	return nil
}

const columns = `id, name, state, success, error,
	steps_passed, steps_failed, steps_skipped,
	rules_passed, rules_failed, duration_ms, started_at`

// List returns the most recent runs first, without their reports.
// A limit of zero or less returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := `SELECT ` + columns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Get returns one run including its JSON report. The id may be a prefix of
// the full run ID as long as it is unambiguous.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+`, report FROM runs WHERE id LIKE ? ORDER BY started_at DESC LIMIT 2`,
		strings.ToLower(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		var report string
		run, err := scanRun(rows, &report)
		if err != nil {
			return nil, err
		}
		run.Report = json.RawMessage(report)
		found = append(found, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id %q is ambiguous", id)
	}
}

func scanRun(rows *sql.Rows, extra ...any) (Run, error) {
	var (
		run        Run
		id         string
		durationMs int64
		startedAt  int64
	)
	dest := []any{
		&id, &run.Name, &run.State, &run.Success, &run.Error,
		&run.StepsPassed, &run.StepsFailed, &run.StepsSkipped,
		&run.RulesPassed, &run.RulesFailed, &durationMs, &startedAt,
	}
	if err := rows.Scan(append(dest, extra...)...); err != nil {
		return Run{}, fmt.Errorf("failed to scan row: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.ID = parsed
	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.StartedAt = time.Unix(0, startedAt)
	return run, nil
}

func parseConnectionString(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)

	switch {
	case strings.HasPrefix(connStr, "sqlite://"):
		connStr = strings.TrimPrefix(connStr, "sqlite://")
	case strings.HasPrefix(connStr, "sqlite:"):
		connStr = strings.TrimPrefix(connStr, "sqlite:")
	case strings.Contains(connStr, "://"):
		return "", fmt.Errorf("unsupported history database: %s", connStr)
	}

	if connStr == "" {
		return "", errors.New("history database path is empty")
	}
	return connStr, nil
}
