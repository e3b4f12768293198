// Package memstore provides an in-memory store implementation.
//
// By default every key is kept until it is overwritten, expires or the
// store is flushed. WithCapacity bounds the number of plain values with an
// LRU. Counters written by Incr and lists are never evicted. Expired scalars are dropped lazily on access.
package memstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/callcache/internal/stats"
	"github.com/discochess/callcache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// item is a scalar value with an optional absolute expiry.
type item struct {
	value     []byte
	expiresAt time.Time
}

func (i item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// Store is an in-memory key-value store. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	values map[string]item
	lists  map[string][][]byte

	// evictable tracks recency of values written by Set and SetWithExpiry.
	// It is nil when the store is unbounded.
	evictable *lru.Cache[string, struct{}]
	capacity  int

	now       func() time.Time
	collector stats.Collector
}

// Option configures a Store.
type Option func(*config)

type config struct {
	capacity  int
	now       func() time.Time
	collector stats.Collector
}

// WithCapacity bounds the number of plain values. Once n values are held,
// writing a new one evicts the least recently used. Counters are not
// counted against n. Zero, the default, keeps every value.
func WithCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

// WithClock sets the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithStats sets the stats collector.
func WithStats(collector stats.Collector) Option {
	return func(c *config) {
		c.collector = collector
	}
}

// New creates a new in-memory store.
func New(opts ...Option) (*Store, error) {
	cfg := config{
		now:       time.Now,
		collector: stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.capacity < 0 {
		return nil, fmt.Errorf("memstore: negative capacity %d", cfg.capacity)
	}

	s := &Store{
		values:    make(map[string]item),
		lists:     make(map[string][][]byte),
		capacity:  cfg.capacity,
		now:       cfg.now,
		collector: cfg.collector,
	}
	if cfg.capacity > 0 {
		evictable, err := lru.New[string, struct{}](cfg.capacity)
		if err != nil {
			return nil, err
		}
		s.evictable = evictable
	}
	return s, nil
}

// Set stores value under key with no expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.set(key, value, time.Time{})
}

// SetWithExpiry stores value under key until ttl has elapsed.
func (s *Store) SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.set(key, value, s.now().Add(ttl))
}

func (s *Store) set(key string, value []byte, expiresAt time.Time) error {
	copied := make([]byte, len(value))
	copy(copied, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.lists, key)
	s.track(key)
	s.values[key] = item{value: copied, expiresAt: expiresAt}
	s.reportSize()
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.lookup(key)
	if !ok {
		if _, isList := s.lists[key]; isList {
			return nil, store.ErrWrongType
		}
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Incr increments the counter at key. Any expiry on the key is kept.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, isList := s.lists[key]; isList {
		return 0, store.ErrWrongType
	}

	var n int64
	it, ok := s.lookup(key)
	if ok {
		parsed, err := strconv.ParseInt(string(it.value), 10, 64)
		if err != nil {
			return 0, store.ErrWrongType
		}
		n = parsed
	}
	n++

	s.pin(key)
	s.values[key] = item{
		value:     []byte(strconv.FormatInt(n, 10)),
		expiresAt: it.expiresAt,
	}
	s.reportSize()
	return n, nil
}

// Append appends value to the list at key.
func (s *Store) Append(ctx context.Context, key string, value []byte) (int64, error) {
	copied := make([]byte, len(value))
	copy(copied, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(key); ok {
		return 0, store.ErrWrongType
	}
	s.lists[key] = append(s.lists[key], copied)
	s.reportSize()
	return int64(len(s.lists[key])), nil
}

// Range returns a copy of the list elements between start and stop.
func (s *Store) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(key); ok {
		return nil, store.ErrWrongType
	}

	list := s.lists[key]
	from, to, ok := store.Bounds(start, stop, int64(len(list)))
	if !ok {
		return [][]byte{}, nil
	}

	out := make([][]byte, 0, to-from+1)
	for _, v := range list[from : to+1] {
		copied := make([]byte, len(v))
		copy(copied, v)
		out = append(out, copied)
	}
	return out, nil
}

// FlushAll removes every key.
func (s *Store) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string]item)
	if s.evictable != nil {
		s.evictable.Purge()
	}
	s.lists = make(map[string][][]byte)
	s.reportSize()
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of keys currently held, including expired scalars
// that have not been accessed since they expired.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values) + len(s.lists)
}

// lookup returns the live scalar under key, dropping it if expired.
// Callers must hold s.mu.
func (s *Store) lookup(key string) (item, bool) {
	it, ok := s.values[key]
	if !ok {
		return item{}, false
	}
	if it.expired(s.now()) {
		delete(s.values, key)
		s.pin(key)
		return item{}, false
	}
	if s.evictable != nil {
		s.evictable.Get(key)
	}
	return it, true
}

// track marks key as an evictable value, evicting the least recently used
// value first when the store is full. Callers must hold s.mu.
func (s *Store) track(key string) {
	if s.evictable == nil {
		return
	}
	if !s.evictable.Contains(key) && s.evictable.Len() >= s.capacity {
		if oldest, _, ok := s.evictable.RemoveOldest(); ok {
			delete(s.values, oldest)
		}
	}
	s.evictable.Add(key, struct{}{})
}

// pin removes key from eviction tracking. Callers must hold s.mu.
func (s *Store) pin(key string) {
	if s.evictable != nil {
		s.evictable.Remove(key)
	}
}

func (s *Store) reportSize() {
	s.collector.SetGauge(stats.MetricMemstoreKeys, int64(len(s.values)+len(s.lists)))
}
