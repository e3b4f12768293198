// Package memorycachefx provides an fx module for in-memory call and page
// caches. Useful for testing.
package memorycachefx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/callcache"
	"github.com/discochess/callcache/internal/stats"
	"github.com/discochess/callcache/internal/stats/logger"
	"github.com/discochess/callcache/internal/store/memstore"
	"github.com/discochess/callcache/pagecache"
)

// Module provides in-memory caches for testing.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memorycache",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newCaches,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("callcache.stats"))
}

func newMemStore(collector stats.Collector) (*memstore.Store, error) {
	return memstore.New(memstore.WithStats(collector))
}

// Params holds dependencies for creating the caches.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Lifecycle fx.Lifecycle
}

// Result holds the provided caches. The *memstore.Store is provided as
// well, for test setup.
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
		return Result{}, err
	}

	pages, err := pagecache.New(p.Store,
		pagecache.WithStats(p.Collector),
		pagecache.WithLogger(p.Logger.Named("pagecache")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close()
		},
	})

	return Result{Cache: cache, PageCache: pages}, nil
}
