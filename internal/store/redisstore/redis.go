// Package redisstore implements a Redis storage backend.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/discochess/callcache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a Redis storage backend.
type Store struct {
	client redis.UniversalClient
	owned  bool
}

// Option configures a Store.
type Option func(*redis.Options)

// WithPassword sets the password used to authenticate.
func WithPassword(password string) Option {
	return func(o *redis.Options) {
		o.Password = password
	}
}

// WithDB selects the logical database.
func WithDB(db int) Option {
	return func(o *redis.Options) {
		o.DB = db
	}
}

// WithDialTimeout sets the timeout for establishing connections.
func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) {
		o.DialTimeout = d
	}
}

// New creates a store connected to the Redis server at addr.
// No connection is made until the first command; use Ping to check
// reachability.
func New(addr string, opts ...Option) *Store {
	o := &redis.Options{Addr: addr}
	for _, opt := range opts {
		opt(o)
	}
	return &Store{client: redis.NewClient(o), owned: true}
}

// NewFromClient wraps an existing client. Close does not close it.
func NewFromClient(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Set stores value under key with no expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return wrap(s.client.Set(ctx, key, value, 0).Err())
}

// SetWithExpiry stores value under key with a TTL.
func (s *Store) SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return wrap(s.client.SetEx(ctx, key, value, ttl).Err())
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, wrap(err)
	}
	return data, nil
}

// Incr increments the counter at key.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	return n, wrap(err)
}

// Append pushes value onto the tail of the list at key.
func (s *Store) Append(ctx context.Context, key string, value []byte) (int64, error) {
	n, err := s.client.RPush(ctx, key, value).Result()
	return n, wrap(err)
}

// Range returns list elements between start and stop inclusive.
func (s *Store) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	vals, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, wrap(err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// FlushAll removes every key from every database on the server.
func (s *Store) FlushAll(ctx context.Context) error {
	return wrap(s.client.FlushAll(ctx).Err())
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return wrap(s.client.Ping(ctx).Err())
}

// Close closes the underlying client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// wrap maps go-redis errors onto store sentinels.
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return store.ErrNotFound
	case strings.HasPrefix(err.Error(), "WRONGTYPE"),
		strings.Contains(err.Error(), "not an integer"):
		return fmt.Errorf("%w: %v", store.ErrWrongType, err)
	default:
		return fmt.Errorf("redis: %w", err)
	}
}
