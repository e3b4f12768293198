package main

import (
	"fmt"
	"io"
	"sort"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/discochess/callcache/internal/config"
	"github.com/discochess/callcache/internal/stats"
	"github.com/discochess/callcache/internal/stats/prometheus"
	"github.com/discochess/callcache/internal/store"
	"github.com/discochess/callcache/pagecache"
)

// env bundles what every subcommand needs.
type env struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *promclient.Registry
	collector stats.Collector
	store     store.Store
}

func setup() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	registry := promclient.NewRegistry()
	collector := prometheus.New(registry)

	st, err := cfg.Store.OpenStore(collector)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	logger.Debug("store opened", zap.String("backend", cfg.Store.Backend))

	return &env{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		collector: collector,
		store:     st,
	}, nil
}

func (e *env) pageCache() (*pagecache.Cache, error) {
	fetcher, err := e.cfg.Page.NewFetcher()
	if err != nil {
		return nil, err
	}
	cd, err := e.cfg.Page.NewCodec()
	if err != nil {
		return nil, err
	}
	return pagecache.New(e.store,
		pagecache.WithFetcher(fetcher),
		pagecache.WithCodec(cd),
		pagecache.WithTTL(e.cfg.Page.TTL),
		pagecache.WithStats(e.collector),
		pagecache.WithLogger(e.logger.Named("pagecache")),
	)
}

// close releases the store unless it was handed to a cache that owns it.
func (e *env) close(storeOwned bool) {
	if !storeOwned {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("closing store", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

// printMetrics writes every non-zero sample in the registry to w.
func (e *env) printMetrics(w io.Writer) error {
	families, err := e.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })

	fmt.Fprintln(w, "Metrics:")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "  %-32s %g\n", mf.GetName(), m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Fprintf(w, "  %-32s %g\n", mf.GetName(), m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "  %-32s count=%d sum=%.3fs\n", mf.GetName(), h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
