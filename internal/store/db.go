package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/studybridge/client-go/internal/config"
)

// Schema for the client-local session database. One row per role in
// identities; session_cache holds small session-scoped values (cached
// conversation pointers and the like) that must die with the session.
const schema = `
CREATE TABLE IF NOT EXISTS identities (
	role        TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	token       TEXT NOT NULL,
	admin_token TEXT NOT NULL DEFAULT '',
	saved_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS session_cache (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

type DB struct {
	*sqlx.DB
}

// Open opens (creating if needed) the session database at path and applies
// the schema. The connection pool is capped at one connection: SQLite is a
// single-writer store and the session layer is the only writer anyway.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", path, config.StoreBusyTimeout.Milliseconds())
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}
