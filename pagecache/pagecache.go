// Package pagecache caches fetched web pages in a key-value store for a
// bounded time and counts every access to a URL, hit or miss.
package pagecache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/callcache/internal/codec"
	"github.com/discochess/callcache/internal/codec/noopcodec"
	"github.com/discochess/callcache/internal/fetch"
	"github.com/discochess/callcache/internal/fetch/httpfetch"
	"github.com/discochess/callcache/internal/stats"
	"github.com/discochess/callcache/internal/store"
)

// DefaultTTL is how long a fetched page is served from the store.
const DefaultTTL = 10 * time.Second

// ErrNoStore indicates no store was provided.
var ErrNoStore = errors.New("pagecache: no store provided")

// CountKey returns the key of the access counter for url.
func CountKey(url string) string { return "count:" + url }

// CacheKey returns the key under which the body of url is cached.
func CacheKey(url string) string { return "cached:" + url }

// Cache serves page bodies from a store, fetching them on a miss.
// A Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	store     store.Store
	fetcher   fetch.Fetcher
	codec     codec.Codec
	ttl       time.Duration
	collector stats.Collector
	logger    *zap.Logger

	hits        atomic.Int64
	misses      atomic.Int64
	fetchErrors atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithFetcher sets the fetcher used on a miss.
// If not set, a net/http fetcher is used.
func WithFetcher(f fetch.Fetcher) Option {
	return func(c *Cache) {
		c.fetcher = f
	}
}

// WithTTL sets how long a page stays cached. Default is DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithCodec sets the codec applied to bodies before they are stored.
// If not set, bodies are stored verbatim.
func WithCodec(cd codec.Codec) Option {
	return func(c *Cache) {
		c.codec = cd
	}
}

// WithStats sets the stats collector.
func WithStats(collector stats.Collector) Option {
	return func(c *Cache) {
		c.collector = collector
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// New creates a page cache over s.
func New(s store.Store, opts ...Option) (*Cache, error) {
	if s == nil {
		return nil, ErrNoStore
	}
	c := &Cache{
		store:     s,
		ttl:       DefaultTTL,
		codec:     noopcodec.New(),
		collector: stats.NewNoop(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = httpfetch.New()
	}
	return c, nil
}

// GetPage returns the body of url. The access counter for url is
// incremented first, whatever happens next. A cached body is returned
// without fetching; otherwise the page is fetched, cached for the TTL and
// returned. ok is false when the page could not be fetched or the fetched
// body could not be cached; failures are never cached.
func (c *Cache) GetPage(ctx context.Context, url string) (body string, ok bool) {
	c.collector.IncCounter(stats.MetricPageRequests, 1)
	log := c.logger.With(zap.String("url", url))

	if _, err := c.store.Incr(ctx, CountKey(url)); err != nil {
		log.Warn("counting page access failed", zap.Error(err))
	}

	if cached, hit := c.lookup(ctx, log, url); hit {
		c.hits.Add(1)
		c.collector.IncCounter(stats.MetricPageHits, 1)
		return cached, true
	}

	c.misses.Add(1)
	c.collector.IncCounter(stats.MetricPageMisses, 1)

	start := time.Now()
	data, err := c.fetcher.Fetch(ctx, url)
	c.collector.ObserveHistogram(stats.MetricPageFetchTime, time.Since(start).Seconds())
	if err != nil {
		c.fetchErrors.Add(1)
		c.collector.IncCounter(stats.MetricPageFetchErrors, 1)
		log.Debug("fetch failed", zap.Error(err))
		return "", false
	}

	encoded, err := codec.Encode(c.codec, data)
	if err != nil {
		log.Warn("encoding page failed", zap.Error(err))
		return "", false
	}
	if err := c.store.SetWithExpiry(ctx, CacheKey(url), encoded, c.ttl); err != nil {
		log.Warn("caching page failed", zap.Error(err))
		return "", false
	}
	return string(data), true
}

// lookup returns the cached body of url if one is present and readable.
func (c *Cache) lookup(ctx context.Context, log *zap.Logger, url string) (string, bool) {
	raw, err := c.store.Get(ctx, CacheKey(url))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("reading cached page failed", zap.Error(err))
		}
		return "", false
	}
	data, err := codec.Decode(c.codec, raw)
	if err != nil {
		log.Warn("discarding unreadable cached page", zap.Error(err))
		return "", false
	}
	return string(data), true
}

// AccessCount returns how many times url has been requested.
func (c *Cache) AccessCount(ctx context.Context, url string) (int64, error) {
	raw, err := c.store.Get(ctx, CountKey(url))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return parseCount(raw)
}

// TTL returns how long fetched pages are cached.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Stats returns request statistics for this process.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		FetchErrors: c.fetchErrors.Load(),
	}
}
