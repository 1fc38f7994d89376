// Package cache stores intermediate pipeline results between runs.
//
// Two results are worth keeping: the similarity matrix, which is O(N²) to
// build, and the layout positions, which dominate run time for the
// projection-based strategies. Both are keyed by a [Keyer] from a content
// hash of their inputs plus the options that affect them.
//
// # Backends
//
//   - [NullCache]: caching disabled.
//   - [FileCache]: one JSON file per entry under a directory (CLI default).
//   - [RedisCache]: shared cache for several machines.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value for key. A missing or expired key is a miss
	// (hit == false) and not an error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Entry lifetimes.
const (
	TTLSimilarity = 7 * 24 * time.Hour
	TTLLayout     = 24 * time.Hour
)

// =============================================================================
// Disabled Cache
// =============================================================================

// NullCache never stores anything. Reason, when set, says why caching is
// off and is shown to the user.
type NullCache struct {
	Reason string
}

// NewNullCache returns a cache that always misses.
func NewNullCache() *NullCache {
	return &NullCache{}
}

// Disabled returns a [NullCache] that records why caching is off.
func Disabled(reason string) *NullCache {
	return &NullCache{Reason: reason}
}

// Get always misses.
func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }

// String describes the cache for status output.
func (c *NullCache) String() string {
	if c.Reason == "" {
		return "disabled"
	}
	return "disabled (" + c.Reason + ")"
}

var _ Cache = (*NullCache)(nil)
