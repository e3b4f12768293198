package stats

var help = map[string]string{
	MetricStores:          "Number of values written through the instrumented cache.",
	MetricStoreErrors:     "Number of instrumented store calls that failed.",
	MetricRetrievals:      "Number of retrieve calls against the instrumented cache.",
	MetricRetrievalMisses: "Number of retrieve calls for keys that were absent.",
	MetricReplays:         "Number of call history reports produced.",
	MetricPageRequests:    "Number of page requests, hits and misses alike.",
	MetricPageHits:        "Number of page requests served from the store.",
	MetricPageMisses:      "Number of page requests that required a fetch.",
	MetricPageFetchErrors: "Number of page fetches that failed.",
	MetricPageFetchTime:   "Latency of page fetches in seconds.",
	MetricMemstoreKeys:    "Number of keys held by the in-memory store.",
}

// Help returns the description for a metric name, or the name itself for
// metrics without one.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}
