// Package sqlite implements the repository interfaces on SQLite through the
// pure-Go modernc.org/sqlite driver (no cgo).
//
// Use ":memory:" as the path in tests.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB is the stub service's database.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// Pragmas are per connection, and every pooled connection to ":memory:"
	// would be its own empty database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	// Off by default in SQLite; posts cascade with their owner.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating accounts table: %w", err)
	}

	// platforms and content hold JSON. seq keeps insertion order stable when
	// two posts share a timestamp.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			owner_id   TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			prompt     TEXT NOT NULL,
			platforms  TEXT NOT NULL DEFAULT '[]',
			content    TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_posts_owner ON posts(owner_id, seq);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}
	return nil
}

// uniqueViolation reports which column of table broke a UNIQUE constraint,
// or "" if err is not a unique violation.
func uniqueViolation(err error, table string) string {
	msg := err.Error()
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	prefix := table + "."
	if !strings.HasPrefix(rest, prefix) {
		return ""
	}
	col := strings.TrimPrefix(rest, prefix)
	if j := strings.IndexAny(col, " ,)"); j >= 0 {
		col = col[:j]
	}
	return col
}
