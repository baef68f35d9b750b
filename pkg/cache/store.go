// Package cache provides the key/value stores backing the export cache and
// the version counter that orphans stale export entries.
package cache

import (
	"context"
	"errors"
	"time"
)

// Backend names
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ErrClosed is returned by stores used after Close
var ErrClosed = errors.New("cache store closed")

// Store is a key/value cache with TTLs and atomic counters
type Store interface {
	// Name identifies the backend in logs and metrics
	Name() string

	// Get returns the value for key. ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Counter returns the integer stored under key. ok is false when unset.
	Counter(ctx context.Context, key string) (n int64, ok bool, err error)

	// Incr atomically seeds key with initial when it is unset and then
	// increments it, returning the new value. Counters never expire.
	Incr(ctx context.Context, key string, initial int64) (int64, error)

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the backend's resources
	Close() error
}
