package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/discochess/callcache/internal/store"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(mr.Addr())
	t.Cleanup(func() { s.Close() })
	return mr, s
}

func TestStore_SetGet(t *testing.T) {
	_, s := setupRedis(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != "value" {
		t.Errorf("Get() = %q, want %q", data, "value")
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	_, s := setupRedis(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_SetWithExpiry(t *testing.T) {
	mr, s := setupRedis(t)
	ctx := context.Background()

	if err := s.SetWithExpiry(ctx, "page", []byte("body"), 10*time.Second); err != nil {
		t.Fatalf("SetWithExpiry() error = %v", err)
	}
	if ttl := mr.TTL("page"); ttl != 10*time.Second {
		t.Errorf("TTL = %v, want 10s", ttl)
	}

	mr.FastForward(11 * time.Second)

	if _, err := s.Get(ctx, "page"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestStore_Incr(t *testing.T) {
	_, s := setupRedis(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.Incr(ctx, "Cache.Store")
		if err != nil {
			t.Fatalf("Incr() error = %v", err)
		}
		if got != want {
			t.Errorf("Incr() = %d, want %d", got, want)
		}
	}
}

func TestStore_Incr_WrongType(t *testing.T) {
	_, s := setupRedis(t)
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("abc"))
	if _, err := s.Incr(ctx, "k"); !errors.Is(err, store.ErrWrongType) {
		t.Errorf("Incr() error = %v, want ErrWrongType", err)
	}
}

func TestStore_AppendRange(t *testing.T) {
	_, s := setupRedis(t)
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		if _, err := s.Append(ctx, "list", []byte(v)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := s.Range(ctx, "list", 0, -1)
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Range() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Errorf("Range()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	empty, err := s.Range(ctx, "missing", 0, -1)
	if err != nil {
		t.Fatalf("Range(missing) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Range(missing) = %v, want empty", empty)
	}
}

func TestStore_FlushAll(t *testing.T) {
	mr, s := setupRedis(t)
	ctx := context.Background()

	_ = s.Set(ctx, "a", []byte("1"))
	if err := s.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll() error = %v", err)
	}
	if mr.Exists("a") {
		t.Error("key a should be gone after FlushAll")
	}
}

func TestStore_Ping_Unreachable(t *testing.T) {
	mr, s := setupRedis(t)
	mr.Close()

	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail when the server is down")
	}
}

func TestNewFromClient_DoesNotClose(t *testing.T) {
	mr := miniredis.RunT(t)
	owner := New(mr.Addr())
	defer owner.Close()

	s := NewFromClient(owner.client)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := owner.Ping(context.Background()); err != nil {
		t.Errorf("shared client closed by borrower: %v", err)
	}
}
