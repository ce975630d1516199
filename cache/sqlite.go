package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER
);`

// SQLite is a durable Backend storing entries in a single SQLite database.
// It survives process restarts like the file backend but keeps everything in
// one file, which suits deployments that already ship a database path.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// SQLiteOptions configure a SQLite backend.
type SQLiteOptions struct {
	// Clock supplies the current time; used by tests to simulate expiry.
	Clock func() time.Time
}

// NewSQLite opens (or creates) the database at path and ensures the schema.
func NewSQLite(path string, optFns ...func(o *SQLiteOptions)) (*SQLite, error) {
	opts := SQLiteOptions{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLite{db: db, now: opts.Clock}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// Get implements Backend with lazy expiry on read.
func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt sql.NullInt64
	err := s.db.QueryRow(
		"SELECT value, expires_at FROM cache_entries WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	if expiresAt.Valid && expiresAt.Int64 < s.now().Unix() {
		_, _ = s.db.Exec("DELETE FROM cache_entries WHERE key = ?", key)
		return nil, false, nil
	}
	return value, true, nil
}

// Set implements Backend.
func (s *SQLite) Set(key string, value []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).Unix()
	}
	_, err := s.db.Exec(
		"INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at",
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}
