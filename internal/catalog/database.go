// Package catalog keeps a history of decode attempts in SQLite.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// Catalog is an open decode history database.
type Catalog struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at dbPath and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(dbPath string) (*Catalog, error) {
	slog.Debug("opening decode catalog", "path", dbPath)

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA user_version = 1",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	slog.Info("decode catalog opened", "path", dbPath)
	return &Catalog{db: db, path: dbPath}, nil
}

func ensureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS decodes (
    id            TEXT    PRIMARY KEY,
    timestamp     INTEGER NOT NULL,
    path          TEXT    NOT NULL,
    outcome       TEXT    NOT NULL,
    title         TEXT    NOT NULL DEFAULT '',
    sequence_name TEXT    NOT NULL DEFAULT '',
    samples       INTEGER NOT NULL DEFAULT 0 CHECK (samples >= 0),
    error         TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_decodes_timestamp ON decodes(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_decodes_outcome ON decodes(outcome);
CREATE INDEX IF NOT EXISTS idx_decodes_path ON decodes(path);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Path returns the database location given to Open.
func (c *Catalog) Path() string {
	return c.path
}

// Ping checks that the database is reachable.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
