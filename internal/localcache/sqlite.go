// Package localcache keeps the client's copy of synced keys on the device.
package localcache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLite persists cached values across runs so the last known state is
// available before the server answers.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the cache database at dir/cache.db.
func OpenSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "cache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cached_values (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Load returns the cached bytes for key, if any.
func (c *SQLite) Load(key string) ([]byte, bool, error) {
	var value []byte
	err := c.db.QueryRow(`SELECT value FROM cached_values WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Store records value for key.
func (c *SQLite) Store(key string, value []byte) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO cached_values (key, value) VALUES (?, ?)`,
		key, value,
	)
	return err
}

// Delete forgets key.
func (c *SQLite) Delete(key string) error {
	_, err := c.db.Exec(`DELETE FROM cached_values WHERE key = ?`, key)
	return err
}

// Close closes the cache database.
func (c *SQLite) Close() error {
	return c.db.Close()
}
