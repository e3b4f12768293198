package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/discochess/callcache/internal/store"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestStore_SetGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "k", []byte("hello")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Get() = %q, want %q", data, "hello")
	}
}

func TestStore_CopiesValues(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	original := []byte("original")
	if err := s.Set(ctx, "k", original); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	original[0] = 'X'

	data, _ := s.Get(ctx, "k")
	if string(data) != "original" {
		t.Errorf("stored value mutated by caller: %q", data)
	}
}

func TestStore_SetWithExpiry(t *testing.T) {
	clock := newFakeClock()
	s := newStore(t, WithClock(clock.Now))
	ctx := context.Background()

	if err := s.SetWithExpiry(ctx, "page", []byte("body"), 10*time.Second); err != nil {
		t.Fatalf("SetWithExpiry() error = %v", err)
	}

	clock.Advance(9 * time.Second)
	if _, err := s.Get(ctx, "page"); err != nil {
		t.Errorf("Get() before expiry error = %v", err)
	}

	clock.Advance(time.Second)
	if _, err := s.Get(ctx, "page"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestStore_Incr(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.Incr(ctx, "counter")
		if err != nil {
			t.Fatalf("Incr() error = %v", err)
		}
		if got != want {
			t.Errorf("Incr() = %d, want %d", got, want)
		}
	}

	data, err := s.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != "3" {
		t.Errorf("Get(counter) = %q, want %q", data, "3")
	}
}

func TestStore_Incr_NonNumeric(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("abc"))
	if _, err := s.Incr(ctx, "k"); !errors.Is(err, store.ErrWrongType) {
		t.Errorf("Incr() error = %v, want ErrWrongType", err)
	}
}

func TestStore_Incr_KeepsExpiry(t *testing.T) {
	clock := newFakeClock()
	s := newStore(t, WithClock(clock.Now))
	ctx := context.Background()

	_ = s.SetWithExpiry(ctx, "n", []byte("5"), 10*time.Second)
	if got, _ := s.Incr(ctx, "n"); got != 6 {
		t.Errorf("Incr() = %d, want 6", got)
	}

	clock.Advance(10 * time.Second)
	if got, _ := s.Incr(ctx, "n"); got != 1 {
		t.Errorf("Incr() after expiry = %d, want 1", got)
	}
}

func TestStore_AppendRange(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for i, v := range []string{"a", "b", "c"} {
		n, err := s.Append(ctx, "list", []byte(v))
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if n != int64(i+1) {
			t.Errorf("Append() = %d, want %d", n, i+1)
		}
	}

	tests := []struct {
		name        string
		start, stop int64
		want        []string
	}{
		{"all", 0, -1, []string{"a", "b", "c"}},
		{"first two", 0, 1, []string{"a", "b"}},
		{"last", -1, -1, []string{"c"}},
		{"out of range", 5, 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Range(ctx, "list", tt.start, tt.stop)
			if err != nil {
				t.Fatalf("Range() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Range() len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if string(got[i]) != tt.want[i] {
					t.Errorf("Range()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStore_Range_Missing(t *testing.T) {
	s := newStore(t)

	got, err := s.Range(context.Background(), "nope", 0, -1)
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Range() = %v, want empty", got)
	}
}

func TestStore_WrongType(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, _ = s.Append(ctx, "list", []byte("x"))
	if _, err := s.Get(ctx, "list"); !errors.Is(err, store.ErrWrongType) {
		t.Errorf("Get(list) error = %v, want ErrWrongType", err)
	}
	if _, err := s.Incr(ctx, "list"); !errors.Is(err, store.ErrWrongType) {
		t.Errorf("Incr(list) error = %v, want ErrWrongType", err)
	}

	_ = s.Set(ctx, "scalar", []byte("x"))
	if _, err := s.Append(ctx, "scalar", []byte("y")); !errors.Is(err, store.ErrWrongType) {
		t.Errorf("Append(scalar) error = %v, want ErrWrongType", err)
	}
}

func TestStore_FlushAll(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "a", []byte("1"))
	_, _ = s.Append(ctx, "l", []byte("1"))

	if err := s.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() after flush error = %v, want ErrNotFound", err)
	}
}

func TestStore_LRUEviction(t *testing.T) {
	s := newStore(t, WithCapacity(2))
	ctx := context.Background()

	_ = s.Set(ctx, "one", []byte("1"))
	_ = s.Set(ctx, "two", []byte("2"))
	_ = s.Set(ctx, "three", []byte("3")) // Should evict "one".

	if _, err := s.Get(ctx, "one"); !errors.Is(err, store.ErrNotFound) {
		t.Error("Get(one) should fail after eviction")
	}
	if _, err := s.Get(ctx, "two"); err != nil {
		t.Errorf("Get(two) error = %v", err)
	}
	if _, err := s.Get(ctx, "three"); err != nil {
		t.Errorf("Get(three) error = %v", err)
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	if _, err := New(WithCapacity(-1)); err == nil {
		t.Error("New(WithCapacity(-1)) should return error")
	}
}

func TestStore_UnboundedByDefault(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		if err := s.Set(ctx, fmt.Sprintf("key-%d", i), []byte("v")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if _, err := s.Get(ctx, "key-0"); err != nil {
		t.Errorf("Get(key-0) error = %v, want first value kept", err)
	}
	if got := s.Len(); got != 1000 {
		t.Errorf("Len() = %d, want 1000", got)
	}
}

func TestStore_CountersSurviveEviction(t *testing.T) {
	s := newStore(t, WithCapacity(4))
	ctx := context.Background()

	if _, err := s.Incr(ctx, "count:http://x"); err != nil {
		t.Fatalf("Incr() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := s.Set(ctx, fmt.Sprintf("entry-%d", i), []byte("v")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	got, err := s.Get(ctx, "count:http://x")
	if err != nil {
		t.Fatalf("Get(counter) error = %v", err)
	}
	if string(got) != "1" {
		t.Errorf("counter = %q, want %q", got, "1")
	}
	if n, err := s.Incr(ctx, "count:http://x"); err != nil || n != 2 {
		t.Errorf("Incr() = %d, %v, want 2", n, err)
	}

	// Only the four most recent values remain.
	if _, err := s.Get(ctx, "entry-5"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(entry-5) error = %v, want ErrNotFound", err)
	}
	for i := 6; i < 10; i++ {
		if _, err := s.Get(ctx, fmt.Sprintf("entry-%d", i)); err != nil {
			t.Errorf("Get(entry-%d) error = %v", i, err)
		}
	}
}

func TestStore_IncrPinsValue(t *testing.T) {
	s := newStore(t, WithCapacity(1))
	ctx := context.Background()

	_ = s.Set(ctx, "n", []byte("41"))
	if n, err := s.Incr(ctx, "n"); err != nil || n != 42 {
		t.Fatalf("Incr() = %d, %v, want 42", n, err)
	}
	_ = s.Set(ctx, "a", []byte("1"))
	_ = s.Set(ctx, "b", []byte("2"))

	if got, err := s.Get(ctx, "n"); err != nil || string(got) != "42" {
		t.Errorf("Get(n) = %q, %v, want 42", got, err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(a) error = %v, want ErrNotFound", err)
	}
}

type gaugeRecorder struct {
	mu     sync.Mutex
	gauges map[string]int64
}

func (r *gaugeRecorder) IncCounter(name string, delta int64)         {}
func (r *gaugeRecorder) ObserveHistogram(name string, value float64) {}
func (r *gaugeRecorder) SetGauge(name string, value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[name] = value
}

func TestStore_ReportsSize(t *testing.T) {
	rec := &gaugeRecorder{gauges: make(map[string]int64)}
	s := newStore(t, WithStats(rec))
	ctx := context.Background()

	_ = s.Set(ctx, "a", []byte("1"))
	_, _ = s.Append(ctx, "b", []byte("1"))

	if got := rec.gauges["memstore_keys"]; got != 2 {
		t.Errorf("memstore_keys gauge = %d, want 2", got)
	}
}

func TestStore_ConcurrentIncr(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := s.Incr(ctx, "n"); err != nil {
					t.Errorf("Incr() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	data, _ := s.Get(ctx, "n")
	if string(data) != "1000" {
		t.Errorf("counter = %s, want 1000", data)
	}
}
