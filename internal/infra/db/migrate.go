package db

import (
	"context"
	"database/sql"
	"fmt"
)

// seq gives a total insertion order independent of clock skew between
// writers; List orders by it.
var schemas = map[string][]string{
	DriverPostgres: {
		`
CREATE TABLE IF NOT EXISTS audit_records (
    seq          BIGSERIAL PRIMARY KEY,
    id           UUID NOT NULL UNIQUE,
    recorded_at  TIMESTAMPTZ NOT NULL,
    user_name    TEXT NOT NULL,
    query        TEXT NOT NULL,
    action       VARCHAR(16) NOT NULL CHECK (action IN ('Confirm', 'Dismiss')),
    reason       TEXT NOT NULL,
    article_url  TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_records_query ON audit_records (lower(query))`,
	},
	DriverSQLite: {
		`
CREATE TABLE IF NOT EXISTS audit_records (
    seq          INTEGER PRIMARY KEY AUTOINCREMENT,
    id           TEXT NOT NULL UNIQUE,
    recorded_at  TEXT NOT NULL,
    user_name    TEXT NOT NULL,
    query        TEXT NOT NULL,
    action       TEXT NOT NULL CHECK (action IN ('Confirm', 'Dismiss')),
    reason       TEXT NOT NULL,
    article_url  TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_records_query ON audit_records (query COLLATE NOCASE)`,
	},
}

// MigrateUp creates the audit schema for driver. It is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB, driver string) error {
	stmts, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", driver)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// MigrateDown drops the audit schema. All recorded decisions are lost.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{
		`DROP INDEX IF EXISTS idx_audit_records_query`,
		`DROP TABLE IF EXISTS audit_records`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
