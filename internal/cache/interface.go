package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON documents under plain keys with a TTL.
type Cache interface {
	// Store marshals data and caches it under key
	Store(ctx context.Context, key string, data any, ttl time.Duration) error

	// Fetch returns the raw document, or ErrCacheMiss
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Ping checks cache connection
	Ping(ctx context.Context) error

	// Close gracefully closes any connections
	Close()
}
