package callcache

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/discochess/callcache/internal/stats"
	"github.com/discochess/callcache/internal/store"
)

// Option configures a Cache.
type Option interface {
	apply(*options)
}

// options holds the cache configuration.
type options struct {
	store  store.Store
	stats  stats.Collector
	logger *zap.Logger
	newKey func() string
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		stats:  stats.NewNoop(),
		logger: zap.NewNop(),
		newKey: uuid.NewString,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithStore sets the storage backend to use. Required.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithKeyGenerator replaces the random UUID key generator.
// Generated keys must be unique across the lifetime of the store.
func WithKeyGenerator(fn func() string) Option {
	return optionFunc(func(o *options) {
		o.newKey = fn
	})
}
