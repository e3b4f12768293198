package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/discochess/callcache/internal/codec"
	"github.com/discochess/callcache/internal/codec/gzipcodec"
	"github.com/discochess/callcache/internal/codec/noopcodec"
	"github.com/discochess/callcache/internal/codec/zstdcodec"
	"github.com/discochess/callcache/internal/fetch"
	"github.com/discochess/callcache/internal/fetch/collyfetch"
	"github.com/discochess/callcache/internal/fetch/httpfetch"
	"github.com/discochess/callcache/internal/stats"
	"github.com/discochess/callcache/internal/store"
	"github.com/discochess/callcache/internal/store/boltstore"
	"github.com/discochess/callcache/internal/store/memstore"
	"github.com/discochess/callcache/internal/store/redisstore"
)

// OpenStore opens the configured backend. collector receives backend gauges
// where the backend reports any; it may be nil.
func (c StoreConfig) OpenStore(collector stats.Collector) (store.Store, error) {
	switch c.Backend {
	case "redis":
		return redisstore.New(c.Redis.Addr,
			redisstore.WithPassword(c.Redis.Password),
			redisstore.WithDB(c.Redis.DB),
			redisstore.WithDialTimeout(c.Redis.DialTimeout),
		), nil
	case "bolt":
		s, err := boltstore.Open(c.Bolt.Path, boltstore.Options{})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		opts := []memstore.Option{memstore.WithCapacity(c.Memory.Capacity)}
		if collector != nil {
			opts = append(opts, memstore.WithStats(collector))
		}
		s, err := memstore.New(opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

// NewFetcher returns the configured page fetcher.
func (c PageConfig) NewFetcher() (fetch.Fetcher, error) {
	switch c.Fetcher {
	case "http":
		opts := []httpfetch.Option{httpfetch.WithTimeout(c.Timeout)}
		if c.UserAgent != "" {
			opts = append(opts, httpfetch.WithUserAgent(c.UserAgent))
		}
		return httpfetch.New(opts...), nil
	case "colly":
		opts := []collyfetch.Option{collyfetch.WithTimeout(c.Timeout)}
		if c.UserAgent != "" {
			opts = append(opts, collyfetch.WithUserAgent(c.UserAgent))
		}
		return collyfetch.New(opts...)
	default:
		return nil, fmt.Errorf("unknown fetcher %q", c.Fetcher)
	}
}

// NewCodec returns the codec applied to cached page bodies.
func (c PageConfig) NewCodec() (codec.Codec, error) {
	switch c.Codec {
	case "none":
		return noopcodec.New(), nil
	case "gzip":
		return gzipcodec.New(), nil
	case "zstd":
		return zstdcodec.New(), nil
	default:
		return nil, fmt.Errorf("unknown codec %q", c.Codec)
	}
}

// NewLogger builds a production zap logger at the configured level.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(l.ZapLevel())
	return zc.Build()
}
