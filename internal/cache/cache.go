// Package cache stores rendered listing payloads so the server does not
// walk the upload directory on every /list request.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Open creates the cache for backend: "none" (or ""), "memory" or "redis".
func Open(ctx context.Context, backend, redisURL string) (Cache, error) {
	switch backend {
	case "", "none":
		return NewNullCache(), nil
	case "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(ctx, redisURL, "gopher-upload:")
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
