// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a single-file cache. Rows past expires_at are misses and are
// removed on read.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenSQLite opens or creates the cache database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite cache: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &SQLite{db: db, logger: orDiscard(logger), now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER
	)`)
	return err
}

// Get returns the value stored under key if it has not expired.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool) {
	var (
		value     []byte
		expiresAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("sqlite cache get failed", "key", key, "error", err)
		}
		return nil, false
	}

	if expiresAt.Valid && s.now().Unix() >= expiresAt.Int64 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
			s.logger.Debug("sqlite cache evict failed", "key", key, "error", err)
		}
		return nil, false
	}
	return value, true
}

// Set stores value under key, replacing any previous value.
func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: s.now().Add(ttl).Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		s.logger.Debug("sqlite cache set failed", "key", key, "error", err)
	}
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
