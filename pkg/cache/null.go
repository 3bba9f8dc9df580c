package cache

import (
	"context"
	"time"
)

// NullCache stores nothing. Metadata is fetched and catalogs are evaluated
// on every request; --no-cache and the none backend select it.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get is always a miss.
func (*NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

// Ping always succeeds; there is no backend to reach.
func (*NullCache) Ping(context.Context) error { return nil }

var (
	_ Cache  = (*NullCache)(nil)
	_ Pinger = (*NullCache)(nil)
)
