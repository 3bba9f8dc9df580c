// Package cache stores fetched gem metadata and rendered catalogs.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under the user cache directory,
//     used by the CLI
//   - [RedisCache]: a shared Redis instance, used when several hosts plan
//     deployments against the same metadata
//   - [NullCache]: stores nothing, used for --no-cache and tests
//
// Keys are produced by a [Keyer] so that every component namespaces its
// entries the same way.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiration.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is a miss
	// (nil, false, nil), not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Pinger is implemented by backends that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend names the backend of c as configured in cache.backend, or
// "custom" for other implementations.
func Backend(c Cache) string {
	switch c.(type) {
	case *FileCache:
		return "file"
	case *RedisCache:
		return "redis"
	case *NullCache:
		return "none"
	}
	return "custom"
}
