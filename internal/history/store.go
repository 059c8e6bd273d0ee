// Package history records unit test runs in SQLite so the most recent run
// can be repeated and recent runs listed.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNoRuns is returned by Last when nothing has been recorded.
var ErrNoRuns = errors.New("no test runs recorded")

// Status is the outcome of a run.
type Status string

const (
	StatusPassed      Status = "passed"
	StatusFailed      Status = "failed"
	StatusNotExecuted Status = "not_executed"
)

// Run is one executed test command.
type Run struct {
	ID           string        `json:"id"`
	Workspace    string        `json:"workspace"`
	Document     string        `json:"document,omitempty"`
	Entity       string        `json:"entity,omitempty"`
	FunctionName string        `json:"function_name,omitempty"`
	Line         int           `json:"line,omitempty"`
	Intent       string        `json:"intent"`
	Command      string        `json:"command"`
	Directory    string        `json:"directory"`
	Status       Status        `json:"status"`
	Output       string        `json:"output,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

var runColumns = []string{
	"run_id", "workspace", "document", "entity", "function_name", "line",
	"intent", "command", "directory", "status", "output", "started_at", "duration_ms",
}

// Store persists runs.
type Store struct {
	db     *sql.DB
	ownsDB bool
}

// Open opens or creates the history database at path. ":memory:" gives a
// private in-memory store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A second pooled connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, ownsDB: true}, nil
}

// NewStoreWithDB wraps an existing connection. The schema must exist and the
// caller keeps ownership of db.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// Record stores a run.
func (s *Store) Record(run *Run) error {
	_, err := sq.Insert("runs").
		Columns(runColumns...).
		Values(
			run.ID,
			run.Workspace,
			run.Document,
			run.Entity,
			run.FunctionName,
			run.Line,
			run.Intent,
			run.Command,
			run.Directory,
			string(run.Status),
			run.Output,
			run.StartedAt.UnixNano(),
			run.Duration.Milliseconds(),
		).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// Last returns the most recent run, restricted to workspace when it is not
// empty.
func (s *Store) Last(workspace string) (*Run, error) {
	query := sq.Select(runColumns...).
		From("runs").
		OrderBy("started_at DESC", "rowid DESC").
		Limit(1)
	if workspace != "" {
		query = query.Where(sq.Eq{"workspace": workspace})
	}

	run, err := scanRun(query.RunWith(s.db).QueryRow())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last run: %w", err)
	}
	return run, nil
}

// Filter selects the runs List returns. Empty fields match every run and a
// Limit of 0 means no limit.
type Filter struct {
	Workspace string
	Intent    string
	Limit     int
}

// List returns the runs matching f, newest first.
func (s *Store) List(f Filter) ([]*Run, error) {
	query := sq.Select(runColumns...).
		From("runs").
		OrderBy("started_at DESC", "rowid DESC")
	if f.Workspace != "" {
		query = query.Where(sq.Eq{"workspace": f.Workspace})
	}
	if f.Intent != "" {
		query = query.Where(sq.Eq{"intent": f.Intent})
	}
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
	}

	rows, err := query.RunWith(s.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Prune deletes all but the newest keep runs.
func (s *Store) Prune(keep int) (int64, error) {
	keepIDs := sq.Select("run_id").
		From("runs").
		OrderBy("started_at DESC", "rowid DESC").
		Limit(uint64(keep))
	sub, args, err := keepIDs.ToSql()
	if err != nil {
		return 0, err
	}

	res, err := sq.Delete("runs").
		Where(sq.Expr("run_id NOT IN ("+sub+")", args...)).
		RunWith(s.db).
		Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run        Run
		status     string
		startedAt  int64
		durationMS int64
	)
	err := row.Scan(
		&run.ID,
		&run.Workspace,
		&run.Document,
		&run.Entity,
		&run.FunctionName,
		&run.Line,
		&run.Intent,
		&run.Command,
		&run.Directory,
		&status,
		&run.Output,
		&startedAt,
		&durationMS,
	)
	if err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}
