package history

import (
	"database/sql"
	"fmt"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	workspace     TEXT NOT NULL,
	document      TEXT NOT NULL DEFAULT '',
	entity        TEXT NOT NULL DEFAULT '',
	function_name TEXT NOT NULL DEFAULT '',
	line          INTEGER NOT NULL DEFAULT 0,
	intent        TEXT NOT NULL,
	command       TEXT NOT NULL,
	directory     TEXT NOT NULL,
	status        TEXT NOT NULL,
	output        TEXT NOT NULL DEFAULT '',
	started_at    INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL DEFAULT 0
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_workspace ON runs(workspace, started_at)`,
}

// CreateSchema creates the run history tables. It is idempotent.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(createRunsTable); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}
