// Package workload drives callcache and pagecache operations and records
// their latencies.
package workload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/discochess/callcache"
	"github.com/discochess/callcache/pagecache"
)

// Result holds the latencies observed for one workload.
type Result struct {
	Name      string
	Latencies []time.Duration
	Errors    int
	Elapsed   time.Duration // Wall-clock time of the whole run.
}

// Micros returns the latencies in microseconds.
func (r *Result) Micros() []float64 {
	out := make([]float64, len(r.Latencies))
	for i, d := range r.Latencies {
		out[i] = float64(d) / float64(time.Microsecond)
	}
	return out
}

// Throughput returns completed operations per second.
func (r *Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(len(r.Latencies)) / r.Elapsed.Seconds()
}

// StoreRetrieve runs ops Store+RetrieveText round trips against c spread
// over concurrency goroutines. Each sample is one round trip.
func StoreRetrieve(ctx context.Context, name string, c *callcache.Cache, ops, concurrency int) *Result {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu  sync.Mutex
		res = &Result{Name: name, Latencies: make([]time.Duration, 0, ops)}
		wg  sync.WaitGroup
	)
	jobs := make(chan int)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				value := fmt.Sprintf("value-%d", i)
				t0 := time.Now()
				err := roundTrip(ctx, c, value)
				elapsed := time.Since(t0)

				mu.Lock()
				if err != nil {
					res.Errors++
				} else {
					res.Latencies = append(res.Latencies, elapsed)
				}
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < ops; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			i = ops
		}
	}
	close(jobs)
	wg.Wait()
	res.Elapsed = time.Since(start)
	return res
}

func roundTrip(ctx context.Context, c *callcache.Cache, value string) error {
	key, err := c.Store(ctx, value)
	if err != nil {
		return err
	}
	got, ok, err := c.RetrieveText(ctx, key)
	if err != nil {
		return err
	}
	if !ok || got != value {
		return fmt.Errorf("read back %q, want %q", got, value)
	}
	return nil
}

// Pages requests url ops times through p, alternating between the shared
// URL, which is a hit once cached, and a unique variant of it, which
// always misses. Requests run sequentially so hits and misses can be told
// apart from the cache statistics.
func Pages(ctx context.Context, p *pagecache.Cache, url string, ops int) (hits, misses *Result) {
	hits = &Result{Name: "hit"}
	misses = &Result{Name: "miss"}

	start := time.Now()
	for i := 0; i < ops && ctx.Err() == nil; i++ {
		target := url
		if i%2 == 1 {
			target = fmt.Sprintf("%s%cbench=%d", url, querySep(url), i)
		}

		before := p.Stats()
		t0 := time.Now()
		_, ok := p.GetPage(ctx, target)
		elapsed := time.Since(t0)
		after := p.Stats()

		r := misses
		if after.Hits > before.Hits {
			r = hits
		}
		if !ok {
			r.Errors++
			continue
		}
		r.Latencies = append(r.Latencies, elapsed)
	}
	elapsed := time.Since(start)
	hits.Elapsed, misses.Elapsed = elapsed, elapsed
	return hits, misses
}

func querySep(url string) byte {
	for i := 0; i < len(url); i++ {
		if url[i] == '?' {
			return '&'
		}
	}
	return '?'
}
