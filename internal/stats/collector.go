// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Instrumented cache metrics.
	MetricStores          = "callcache_stores_total"
	MetricStoreErrors     = "callcache_store_errors_total"
	MetricRetrievals      = "callcache_retrievals_total"
	MetricRetrievalMisses = "callcache_retrieval_misses_total"
	MetricReplays         = "callcache_replays_total"

	// Page cache metrics.
	MetricPageRequests    = "pagecache_requests_total"
	MetricPageHits        = "pagecache_hits_total"
	MetricPageMisses      = "pagecache_misses_total"
	MetricPageFetchErrors = "pagecache_fetch_errors_total"
	MetricPageFetchTime   = "pagecache_fetch_seconds"

	// Store metrics.
	MetricMemstoreKeys = "memstore_keys"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
