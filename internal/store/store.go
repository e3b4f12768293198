// Package store defines the key-value backend interface used by the cache.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("store: key not found")

// ErrWrongType is returned when a key holds a value of another kind,
// e.g. incrementing a non-numeric scalar or appending to a scalar.
var ErrWrongType = errors.New("store: wrong kind of value for key")

// Store defines the interface for key-value backends.
// Implementations must make Incr and Append atomic.
type Store interface {
	// Set writes value under key with no expiry, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// SetWithExpiry writes value under key; the key is treated as absent
	// once ttl has elapsed.
	SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Incr atomically increments the integer counter at key and returns the
	// new value. An absent key counts as zero.
	Incr(ctx context.Context, key string) (int64, error)

	// Append atomically appends value to the list at key and returns the new
	// list length.
	Append(ctx context.Context, key string, value []byte) (int64, error)

	// Range returns the list elements between start and stop inclusive.
	// Negative indices count from the end, so Range(key, 0, -1) returns
	// the whole list. An absent key yields an empty slice.
	Range(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	// FlushAll removes every key from the store.
	FlushAll(ctx context.Context) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Bounds resolves start and stop against a list of length n using
// Redis LRANGE semantics. It reports false when the range is empty.
func Bounds(start, stop, n int64) (int64, int64, bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}
