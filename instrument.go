package callcache

import (
	"context"
	"fmt"

	"github.com/discochess/callcache/internal/store"
)

// StoreOp is the operation identity under which Cache.Store calls are
// counted and recorded.
const StoreOp = "Cache.Store"

// Op is an operation that can be instrumented: positional arguments in,
// a single result out.
type Op[R any] func(ctx context.Context, args ...any) (R, error)

// InputsKey returns the key of the input history list for an operation.
func InputsKey(id string) string { return id + ":inputs" }

// OutputsKey returns the key of the output history list for an operation.
func OutputsKey(id string) string { return id + ":outputs" }

// CountCalls wraps next so that every call increments the counter stored
// under id before next runs. A failed increment fails the call without
// running next.
func CountCalls[R any](s store.Store, id string, next Op[R]) Op[R] {
	return func(ctx context.Context, args ...any) (R, error) {
		if _, err := s.Incr(ctx, id); err != nil {
			var zero R
			return zero, fmt.Errorf("counting call to %s: %w", id, err)
		}
		return next(ctx, args...)
	}
}

// CallHistory wraps next so that the formatted arguments are appended to
// the input history before next runs, and the formatted result is appended
// to the output history after next succeeds. A failed call leaves its input
// recorded with no matching output.
func CallHistory[R any](s store.Store, id string, next Op[R]) Op[R] {
	inputs, outputs := InputsKey(id), OutputsKey(id)
	return func(ctx context.Context, args ...any) (R, error) {
		var zero R
		if _, err := s.Append(ctx, inputs, []byte(FormatArgs(args))); err != nil {
			return zero, fmt.Errorf("recording input of %s: %w", id, err)
		}

		result, err := next(ctx, args...)
		if err != nil {
			return zero, err
		}

		if _, err := s.Append(ctx, outputs, []byte(FormatResult(result))); err != nil {
			return zero, fmt.Errorf("recording output of %s: %w", id, err)
		}
		return result, nil
	}
}

// Instrument applies the standard chain to op: call counting outermost,
// then call history.
func Instrument[R any](s store.Store, id string, op Op[R]) Op[R] {
	return CountCalls(s, id, CallHistory(s, id, op))
}
