// Package sqlite is the island registry and player directory, backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skyblockhq/teamsvc/internal/domain"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Defaults fill island settings left at zero.
type Defaults struct {
	MaxMembers    int
	MinInviteRank domain.Rank
}

// Store provides SQLite-backed persistence for islands, members, and players.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu       sync.RWMutex
	defaults Defaults
}

// Open creates a new SQLite store at the given path.
// Connection-scoped pragmas travel in the DSN so every pooled connection
// enforces foreign keys; WAL mode is set once on the database file.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Debug("registry opened", "path", path)
	}

	return &Store{
		db:     db,
		logger: logger,
		defaults: Defaults{
			MaxMembers:    4,
			MinInviteRank: domain.RankMember,
		},
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetDefaults replaces the fallbacks used for unset island settings.
func (s *Store) SetDefaults(d Defaults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = d
}

func (s *Store) currentDefaults() Defaults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
