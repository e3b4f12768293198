// Package callcache stores values under generated keys in a key-value store
// while recording how often the store operation was called, and with which
// arguments and results, so the call history can be replayed later.
//
// Example usage:
//
//	c, err := callcache.New(ctx,
//	    callcache.WithStore(redisstore.New("localhost:6379")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	key, err := c.Store(ctx, "foo")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, ok, err := c.RetrieveText(ctx, key)
//	...
//	c.Replay(ctx, os.Stdout, callcache.StoreOp)
package callcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/callcache/internal/stats"
	"github.com/discochess/callcache/internal/store"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNoStore indicates no store was provided.
	ErrNoStore = errors.New("callcache: no store provided")

	// ErrUnavailable indicates the store could not be reached or reset.
	ErrUnavailable = errors.New("callcache: store unavailable")

	// ErrClosed indicates the cache has been closed.
	ErrClosed = errors.New("callcache: cache closed")

	// ErrUnsupportedValue indicates a value of a type that cannot be stored.
	ErrUnsupportedValue = errors.New("callcache: unsupported value type")

	// ErrDecode indicates a stored value could not be converted to the
	// requested type.
	ErrDecode = errors.New("callcache: cannot decode value")
)

// Cache writes values to a store under fresh keys. Every Store call is
// counted and recorded under StoreOp.
// A Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	store  store.Store
	stats  stats.Collector
	logger *zap.Logger
	newKey func() string
	write  Op[string]
	closed atomic.Bool
}

// New connects to the configured store and wipes it.
// It must run before any concurrent use of the store.
func New(ctx context.Context, opts ...Option) (*Cache, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.store == nil {
		return nil, ErrNoStore
	}

	c := &Cache{
		store:  cfg.store,
		stats:  cfg.stats,
		logger: cfg.logger,
		newKey: cfg.newKey,
	}
	c.write = Instrument(c.store, StoreOp, c.set)

	if err := c.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := c.store.FlushAll(ctx); err != nil {
		return nil, fmt.Errorf("%w: flushing: %w", ErrUnavailable, err)
	}

	c.logger.Debug("cache initialized")
	return c, nil
}

// Store writes data under a newly generated key and returns the key.
// data must be a string, []byte, integer or floating-point value.
func (c *Cache) Store(ctx context.Context, data any) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}

	key, err := c.write(ctx, data)
	if err != nil {
		c.stats.IncCounter(stats.MetricStoreErrors, 1)
		c.logger.Warn("store failed", zap.Error(err))
		return "", err
	}

	c.stats.IncCounter(stats.MetricStores, 1)
	c.logger.Debug("stored value", zap.String("key", key))
	return key, nil
}

// set is the uninstrumented write wrapped by Store.
func (c *Cache) set(ctx context.Context, args ...any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("callcache: store takes one value, got %d", len(args))
	}
	raw, err := encodeValue(args[0])
	if err != nil {
		return "", err
	}

	key := c.newKey()
	if err := c.store.Set(ctx, key, raw); err != nil {
		return "", fmt.Errorf("writing %s: %w", key, err)
	}
	return key, nil
}

// Get returns the raw bytes stored under key. ok is false when the key
// does not exist.
func (c *Cache) Get(ctx context.Context, key string) (raw []byte, ok bool, err error) {
	if c.closed.Load() {
		return nil, false, ErrClosed
	}

	c.stats.IncCounter(stats.MetricRetrievals, 1)

	raw, err = c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.stats.IncCounter(stats.MetricRetrievalMisses, 1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return raw, true, nil
}

// Retrieve returns the value stored under key, transformed by decode when
// decode is non-nil and as raw []byte otherwise. ok is false when the key
// does not exist.
func (c *Cache) Retrieve(ctx context.Context, key string, decode func([]byte) (any, error)) (any, bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if decode == nil {
		return raw, true, nil
	}
	v, err := decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return v, true, nil
}

// RetrieveAs returns the value stored under key converted by decode.
// ok is false when the key does not exist.
func RetrieveAs[T any](ctx context.Context, c *Cache, key string, decode Decoder[T]) (T, bool, error) {
	var zero T
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := decode(raw)
	if err != nil {
		return zero, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return v, true, nil
}

// RetrieveText returns the value stored under key as UTF-8 text.
func (c *Cache) RetrieveText(ctx context.Context, key string) (string, bool, error) {
	return RetrieveAs(ctx, c, key, DecodeText)
}

// RetrieveInt returns the value stored under key as an integer.
func (c *Cache) RetrieveInt(ctx context.Context, key string) (int64, bool, error) {
	return RetrieveAs(ctx, c, key, DecodeInt)
}

// RetrieveUint returns the value stored under key as an unsigned integer.
// Use it for values stored from unsigned types above math.MaxInt64, which
// RetrieveInt rejects.
func (c *Cache) RetrieveUint(ctx context.Context, key string) (uint64, bool, error) {
	return RetrieveAs(ctx, c, key, DecodeUint)
}

// RetrieveFloat returns the value stored under key as a float.
func (c *Cache) RetrieveFloat(ctx context.Context, key string) (float64, bool, error) {
	return RetrieveAs(ctx, c, key, DecodeFloat)
}

// History loads the recorded calls of the operation identified by id.
func (c *Cache) History(ctx context.Context, id string) (*History, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return LoadHistory(ctx, c.store, id)
}

// Replay writes the call report of the operation identified by id to w.
func (c *Cache) Replay(ctx context.Context, w io.Writer, id string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.stats.IncCounter(stats.MetricReplays, 1)
	return Replay(ctx, w, c.store, id)
}

// Close releases all resources associated with the cache.
// After Close, the cache should not be used.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if err := c.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// Backend returns the storage backend used by this cache.
func (c *Cache) Backend() store.Store {
	return c.store
}
