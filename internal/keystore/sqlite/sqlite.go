// Package sqlite implements keystore.Store on top of an embedded SQLite file.
//
// WHY SQLITE FOR A SINGLE KEY?
// The device store has to survive process restarts and partial writes. A
// one-table SQLite database gives atomic replace semantics and crash safety
// for free, and modernc.org/sqlite is pure Go, so the client still
// cross-compiles without a C toolchain.
//
// Use ":memory:" in tests for a throwaway database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/postgen/internal/keystore"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

var _ keystore.Store = (*Store)(nil)

// Store is a keystore.Store backed by a SQLite database.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
func New(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("keystore/sqlite: opening database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive across calls and
	// serializes writes, which is all the device store needs.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("keystore/sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("keystore/sqlite: setting WAL mode: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("keystore/sqlite: running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("keystore/sqlite: getting %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("keystore/sqlite: setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key if present.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("keystore/sqlite: deleting %s: %w", key, err)
	}
	return nil
}
