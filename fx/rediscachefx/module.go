// Package rediscachefx provides an fx module for a Redis-backed call cache
// and page cache sharing one connection.
package rediscachefx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/callcache"
	"github.com/discochess/callcache/internal/fetch"
	"github.com/discochess/callcache/internal/stats"
	"github.com/discochess/callcache/internal/stats/logger"
	"github.com/discochess/callcache/internal/store/redisstore"
	"github.com/discochess/callcache/pagecache"
)

// Config holds connection settings for the Redis-backed caches.
type Config struct {
	// Addr is the Redis host:port.
	Addr string

	Password string
	DB       int

	// PageTTL is how long fetched pages are cached.
	// Default is pagecache.DefaultTTL.
	PageTTL time.Duration
}

// Module provides *callcache.Cache and *pagecache.Cache.
// Requires a *zap.Logger and a Config to be provided. A fetch.Fetcher may
// be supplied; otherwise pages are fetched with net/http.
var Module = fx.Module("rediscache",
	fx.Provide(
		newStatsCollector,
		newStore,
		newCaches,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("callcache.stats"))
}

func newStore(cfg Config) *redisstore.Store {
	return redisstore.New(cfg.Addr,
		redisstore.WithPassword(cfg.Password),
		redisstore.WithDB(cfg.DB),
	)
}

// Params holds dependencies for creating the caches.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Store     *redisstore.Store
	Fetcher   fetch.Fetcher `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Result holds the provided caches.
type Result struct {
	fx.Out

	Cache     *callcache.Cache
	PageCache *pagecache.Cache
}

func newCaches(p Params) (Result, error) {
	cache, err := callcache.New(context.Background(),
		callcache.WithStore(p.Store),
		callcache.WithStats(p.Collector),
		callcache.WithLogger(p.Logger.Named("callcache")),
	)
	if err != nil {
		_ = p.Store.Close()
		return Result{}, err
	}

	opts := []pagecache.Option{
		pagecache.WithStats(p.Collector),
		pagecache.WithLogger(p.Logger.Named("pagecache")),
	}
	if p.Config.PageTTL > 0 {
		opts = append(opts, pagecache.WithTTL(p.Config.PageTTL))
	}
	if p.Fetcher != nil {
		opts = append(opts, pagecache.WithFetcher(p.Fetcher))
	}
	pages, err := pagecache.New(p.Store, opts...)
	if err != nil {
		_ = cache.Close()
		return Result{}, err
	}

	// Closing the call cache closes the shared store.
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close()
		},
	})

	return Result{Cache: cache, PageCache: pages}, nil
}
