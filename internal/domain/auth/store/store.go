package store

import (
	"context"
	"errors"
	"time"

	"soxmonitor/internal/domain/auth/model"
)

// Sentinel results for token lookup. An expired session is removed inside the
// same Lookup call that observes it, so a second Lookup of the same token
// reports ErrSessionNotFound.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Store defines the behaviour required by the session authority.
type Store interface {
	Save(ctx context.Context, sess model.Session) error
	// Lookup returns the live session for token. It evicts an expired entry
	// and reports ErrSessionExpired; an absent token reports ErrSessionNotFound.
	Lookup(ctx context.Context, token string) (model.Session, error)
	Delete(ctx context.Context, token string) error
	List(ctx context.Context) ([]string, error)
	CleanupExpired(ctx context.Context) error
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	Redis  *RedisConfig
	SQLite *SQLiteConfig
	Memory *MemoryConfig
}

// MemoryConfig holds in-memory tuning knobs.
type MemoryConfig struct {
	GCInterval time.Duration
}

// SQLiteConfig provides the database dependency.
type SQLiteConfig struct {
	Path string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
