// Package sqlite provides an embedded SQLite backend for local development.
// It implements the same ports as the Firestore adapter so the two can be
// swapped with a config flag.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("sqlite")

// Store implements port.BillStore and port.ShareStore on a SQLite file.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS bills (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	title         TEXT NOT NULL,
	date          TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	total_amount  REAL NOT NULL,
	category      TEXT NOT NULL,
	status        TEXT NOT NULL,
	participants  TEXT NOT NULL,
	split_results TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bills_user_id ON bills(user_id);

CREATE TABLE IF NOT EXISTS share_links (
	id         TEXT PRIMARY KEY,
	bill_id    TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	token_id   TEXT NOT NULL UNIQUE,
	pin_hash   TEXT NOT NULL DEFAULT '',
	view_count INTEGER NOT NULL DEFAULT 0,
	revoked    INTEGER NOT NULL DEFAULT 0,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_share_links_token_id ON share_links(token_id);
`

// New opens (or creates) the database file and applies the schema.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("sqlite: database ready", zap.String("path", dbPath))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
