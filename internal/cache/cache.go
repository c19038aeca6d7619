// Package cache stores slowly changing lookups (filter-option enumerations)
// with a time-based expiry. Query results are never cached.
package cache

import (
	"context"
	"time"

	"github.com/sells-group/emissions-cli/internal/config"
)

// Cache is a byte-valued key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value for key and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New returns a Redis-backed cache when cfg.RedisURL is set and an
// in-process cache otherwise.
func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	if cfg.RedisURL != "" {
		return NewRedis(ctx, cfg.RedisURL)
	}
	return NewMemory(), nil
}

// TTL converts the configured minutes to a duration, defaulting to one hour.
func TTL(cfg config.CacheConfig) time.Duration {
	if cfg.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(cfg.TTLMinutes) * time.Minute
}
