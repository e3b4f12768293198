package callcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/discochess/callcache/internal/store"
	"github.com/discochess/callcache/internal/store/memstore"
)

// tracingStore records the order of mutating calls made to the wrapped store.
type tracingStore struct {
	store.Store
	trace   []string
	incrErr error
}

func (s *tracingStore) Incr(ctx context.Context, key string) (int64, error) {
	s.trace = append(s.trace, "incr "+key)
	if s.incrErr != nil {
		return 0, s.incrErr
	}
	return s.Store.Incr(ctx, key)
}

func (s *tracingStore) Append(ctx context.Context, key string, value []byte) (int64, error) {
	s.trace = append(s.trace, fmt.Sprintf("append %s %s", key, value))
	return s.Store.Append(ctx, key, value)
}

func newTracingStore(t *testing.T) *tracingStore {
	t.Helper()
	mem, err := memstore.New()
	if err != nil {
		t.Fatalf("memstore.New() error = %v", err)
	}
	return &tracingStore{Store: mem}
}

func TestInstrument_Order(t *testing.T) {
	s := newTracingStore(t)
	ctx := context.Background()

	op := func(ctx context.Context, args ...any) (int, error) {
		s.trace = append(s.trace, "call")
		return args[0].(int) * 2, nil
	}

	got, err := Instrument(s, "double", op)(ctx, 21)
	if err != nil {
		t.Fatalf("op() error = %v", err)
	}
	if got != 42 {
		t.Errorf("op() = %d, want 42", got)
	}

	want := []string{
		"incr double",
		"append double:inputs (21)",
		"call",
		"append double:outputs 42",
	}
	if strings.Join(s.trace, "\n") != strings.Join(want, "\n") {
		t.Errorf("trace = %q, want %q", s.trace, want)
	}
}

func TestCountCalls_IncrFailure(t *testing.T) {
	s := newTracingStore(t)
	s.incrErr = errors.New("connection refused")

	called := false
	op := CountCalls(s, "op", func(ctx context.Context, args ...any) (string, error) {
		called = true
		return "", nil
	})

	if _, err := op(context.Background()); !errors.Is(err, s.incrErr) {
		t.Errorf("op() error = %v, want %v", err, s.incrErr)
	}
	if called {
		t.Error("wrapped op ran after the counter failed")
	}
}

func TestCallHistory_FailedCall(t *testing.T) {
	s := newTracingStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	op := CallHistory(s, "op", func(ctx context.Context, args ...any) (string, error) {
		return "", boom
	})

	if _, err := op(ctx, "x", 1); !errors.Is(err, boom) {
		t.Fatalf("op() error = %v, want %v", err, boom)
	}

	inputs, _ := s.Range(ctx, InputsKey("op"), 0, -1)
	outputs, _ := s.Range(ctx, OutputsKey("op"), 0, -1)
	if len(inputs) != 1 || string(inputs[0]) != `("x", 1)` {
		t.Errorf("inputs = %q, want [(\"x\", 1)]", inputs)
	}
	if len(outputs) != 0 {
		t.Errorf("outputs = %q, want none", outputs)
	}
}

func TestCountCalls_CountsEveryCall(t *testing.T) {
	s := newTracingStore(t)
	ctx := context.Background()

	op := CountCalls(s, "op", func(ctx context.Context, args ...any) (string, error) {
		return "", errors.New("always fails")
	})
	for range 3 {
		_, _ = op(ctx)
	}

	raw, err := s.Get(ctx, "op")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(raw) != "3" {
		t.Errorf("counter = %q, want 3", raw)
	}
}

func TestKeys(t *testing.T) {
	if got := InputsKey(StoreOp); got != "Cache.Store:inputs" {
		t.Errorf("InputsKey() = %q", got)
	}
	if got := OutputsKey(StoreOp); got != "Cache.Store:outputs" {
		t.Errorf("OutputsKey() = %q", got)
	}
}
