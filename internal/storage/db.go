// Package storage persists the clipboard history, picker usage and the
// panel position in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the database file inside the data directory.
const FileName = "clipd.db"

type DB struct {
	conn *sql.DB
}

// Open opens (creating when needed) the database in dataDir and initializes
// the schema.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, FileName)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.initSchema(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id        TEXT PRIMARY KEY,
		position  INTEGER NOT NULL,
		kind      TEXT NOT NULL,
		text      TEXT NOT NULL DEFAULT '',
		image     BLOB,
		width     INTEGER NOT NULL DEFAULT 0,
		height    INTEGER NOT NULL DEFAULT 0,
		preview   TEXT NOT NULL DEFAULT '',
		ts        INTEGER NOT NULL,
		pinned    BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_items_position ON items(position);

	CREATE TABLE IF NOT EXISTS picker_usage (
		value      TEXT NOT NULL,
		kind       TEXT NOT NULL,
		count      INTEGER NOT NULL DEFAULT 0,
		last_used  INTEGER NOT NULL,
		PRIMARY KEY (value, kind)
	);

	CREATE INDEX IF NOT EXISTS idx_picker_usage_last_used ON picker_usage(last_used);

	CREATE TABLE IF NOT EXISTS panel_position (
		id       INTEGER PRIMARY KEY CHECK (id = 1),
		monitor  TEXT NOT NULL,
		x        INTEGER NOT NULL,
		y        INTEGER NOT NULL
	);
	`
	_, err := db.conn.ExecContext(ctx, schema)
	return err
}
