package session

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is one schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of schema changes.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Sessions and refinement history",
		SQL: `
CREATE TABLE IF NOT EXISTS sessions (
    work_item_id INTEGER PRIMARY KEY,
    work_item_json TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    messages TEXT NOT NULL DEFAULT '[]',
    coverage_json TEXT,
    criteria_json TEXT,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS refinement_history (
    id TEXT PRIMARY KEY,
    work_item_id INTEGER NOT NULL,
    instruction TEXT NOT NULL,
    image_refs TEXT NOT NULL DEFAULT '[]',
    change_summary TEXT,
    added INTEGER DEFAULT 0,
    removed INTEGER DEFAULT 0,
    kept INTEGER DEFAULT 0,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_refinement_history_item ON refinement_history(work_item_id, timestamp);
`,
	},
	{
		Version:     2,
		Description: "Generation run log",
		SQL: `
CREATE TABLE IF NOT EXISTS generation_runs (
    id TEXT PRIMARY KEY,
    work_item_id INTEGER NOT NULL,
    operation TEXT NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    attempts INTEGER DEFAULT 0,
    success BOOLEAN NOT NULL,
    error_message TEXT,
    duration_ms INTEGER,
    started_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_generation_runs_item ON generation_runs(work_item_id, started_at DESC);
`,
	},
}

// ApplyMigrations applies pending migrations in one transaction.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := tx.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("get schema version: %w", err)
	}
	return v, nil
}
