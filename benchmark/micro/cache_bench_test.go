package micro

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/discochess/callcache"
	"github.com/discochess/callcache/internal/codec/zstdcodec"
	"github.com/discochess/callcache/internal/store"
	"github.com/discochess/callcache/internal/store/boltstore"
	"github.com/discochess/callcache/internal/store/memstore"
	"github.com/discochess/callcache/internal/store/redisstore"
	"github.com/discochess/callcache/pagecache"
)

// backends opens one store of each kind. miniredis stands in for Redis so
// the numbers measure client and protocol overhead, not a real server.
func backends(b *testing.B) map[string]store.Store {
	b.Helper()

	mem, err := memstore.New()
	if err != nil {
		b.Fatalf("memstore.New: %v", err)
	}
	bolt, err := boltstore.Open(filepath.Join(b.TempDir(), "bench.bbolt"), boltstore.Options{})
	if err != nil {
		b.Fatalf("boltstore.Open: %v", err)
	}
	mr := miniredis.RunT(b)

	stores := map[string]store.Store{
		"memory": mem,
		"bolt":   bolt,
		"redis":  redisstore.New(mr.Addr()),
	}
	b.Cleanup(func() {
		for _, st := range stores {
			st.Close()
		}
	})
	return stores
}

func BenchmarkCache_Store(b *testing.B) {
	for name, st := range backends(b) {
		b.Run(name, func(b *testing.B) {
			ctx := context.Background()
			c, err := callcache.New(ctx, callcache.WithStore(st))
			if err != nil {
				b.Fatalf("callcache.New: %v", err)
			}
			// The store is shared across runs; backends closes it.

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.Store(ctx, i); err != nil {
					b.Fatalf("Store: %v", err)
				}
			}
		})
	}
}

func BenchmarkCache_RetrieveText(b *testing.B) {
	for name, st := range backends(b) {
		b.Run(name, func(b *testing.B) {
			ctx := context.Background()
			c, err := callcache.New(ctx, callcache.WithStore(st))
			if err != nil {
				b.Fatalf("callcache.New: %v", err)
			}
			// The store is shared across runs; backends closes it.

			key, err := c.Store(ctx, "benchmark value")
			if err != nil {
				b.Fatalf("Store: %v", err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, _, err := c.RetrieveText(ctx, key); err != nil {
					b.Fatalf("RetrieveText: %v", err)
				}
			}
		})
	}
}

func BenchmarkCache_Replay(b *testing.B) {
	mem, err := memstore.New()
	if err != nil {
		b.Fatalf("memstore.New: %v", err)
	}
	ctx := context.Background()
	c, err := callcache.New(ctx, callcache.WithStore(mem))
	if err != nil {
		b.Fatalf("callcache.New: %v", err)
	}
	defer c.Close()

	for _, n := range []int{10, 1000} {
		b.Run(fmt.Sprintf("calls=%d", n), func(b *testing.B) {
			for i := 0; i < n; i++ {
				_, _ = c.Store(ctx, i)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.History(ctx, callcache.StoreOp); err != nil {
					b.Fatalf("History: %v", err)
				}
			}
		})
	}
}

func BenchmarkPageCache_Hit(b *testing.B) {
	body := make([]byte, 64<<10)
	for i := range body {
		body[i] = byte('a' + i%26)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	for _, tc := range []struct {
		name string
		opts []pagecache.Option
	}{
		{name: "none"},
		{name: "zstd", opts: []pagecache.Option{pagecache.WithCodec(zstdcodec.New())}},
	} {
		b.Run(tc.name, func(b *testing.B) {
			mem, err := memstore.New()
			if err != nil {
				b.Fatalf("memstore.New: %v", err)
			}
			p, err := pagecache.New(mem, tc.opts...)
			if err != nil {
				b.Fatalf("pagecache.New: %v", err)
			}
			ctx := context.Background()
			if _, ok := p.GetPage(ctx, srv.URL); !ok {
				b.Fatal("warm-up fetch failed")
			}

			b.SetBytes(int64(len(body)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, ok := p.GetPage(ctx, srv.URL); !ok {
					b.Fatal("GetPage failed")
				}
			}
		})
	}
}
