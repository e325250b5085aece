package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type migration struct {
	version  int
	name     string
	postgres string
	sqlite   string
}

// Times are stored as UTC RFC 3339 text on SQLite so that range predicates
// compare lexicographically.
var migrations = []migration{
	{
		version: 1,
		name:    "entries",
		postgres: `
CREATE TABLE IF NOT EXISTS intake_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  label VARCHAR(100) NOT NULL,
  calories INTEGER NOT NULL CHECK (calories >= 0 AND calories <= 5000),
  occurred_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_intake_entries_user_occurred ON intake_entries(user_id, occurred_at);

CREATE TABLE IF NOT EXISTS exertion_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  label VARCHAR(100) NOT NULL,
  calories INTEGER NOT NULL CHECK (calories >= 0 AND calories <= 5000),
  occurred_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_exertion_entries_user_occurred ON exertion_entries(user_id, occurred_at);
`,
		sqlite: `
CREATE TABLE IF NOT EXISTS intake_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  label TEXT NOT NULL,
  calories INTEGER NOT NULL CHECK (calories >= 0 AND calories <= 5000),
  occurred_at TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_intake_entries_user_occurred ON intake_entries(user_id, occurred_at);

CREATE TABLE IF NOT EXISTS exertion_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  label TEXT NOT NULL,
  calories INTEGER NOT NULL CHECK (calories >= 0 AND calories <= 5000),
  occurred_at TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_exertion_entries_user_occurred ON exertion_entries(user_id, occurred_at);
`,
	},
}

const schemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// ApplyMigrations brings the schema up to date. Each migration runs in its
// own transaction and is recorded in schema_migrations, so running it again
// is a no-op. It returns how many migrations were applied.
func (db *DB) ApplyMigrations(ctx context.Context) (int, error) {
	if _, err := db.LogAndExec(ctx, schemaMigrationsDDL); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		var exists int
		err := db.LogAndQueryRow(ctx, `SELECT 1 FROM schema_migrations WHERE version = $1`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return applied, fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		ddl := m.postgres
		if db.dialect == SQLite {
			ddl = m.sqlite
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return applied, fmt.Errorf("begin migration tx: %w", err)
		}
		db.log.Info("applying migration", "version", m.version, "name", m.name)
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
		applied++
	}

	return applied, nil
}
