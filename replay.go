package callcache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/discochess/callcache/internal/store"
)

// Call is one recorded invocation: the formatted arguments and result.
type Call struct {
	Input  string
	Output string
}

// History is the recorded activity of one operation.
type History struct {
	// Operation is the operation identity.
	Operation string

	// Count is the value of the call counter. It can exceed len(Calls)
	// when calls failed or are still in flight.
	Count int64

	// Calls pairs the i-th recorded input with the i-th recorded output,
	// oldest first.
	Calls []Call
}

// LoadHistory reads the counter and both history lists of the operation
// identified by id. A missing or unparsable counter counts as zero, and
// elements that are not valid UTF-8 are shown quoted. Only store failures
// are returned as errors.
func LoadHistory(ctx context.Context, s store.Store, id string) (*History, error) {
	h := &History{Operation: id}

	raw, err := s.Get(ctx, id)
	switch {
	case err == nil:
		if n, perr := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); perr == nil {
			h.Count = n
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, fmt.Errorf("reading call count of %s: %w", id, err)
	}

	inputs, err := s.Range(ctx, InputsKey(id), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("reading inputs of %s: %w", id, err)
	}
	outputs, err := s.Range(ctx, OutputsKey(id), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("reading outputs of %s: %w", id, err)
	}

	n := min(len(inputs), len(outputs))
	h.Calls = make([]Call, n)
	for i := range n {
		h.Calls[i] = Call{Input: display(inputs[i]), Output: display(outputs[i])}
	}
	return h, nil
}

// WriteTo writes the report: a header with the call count, then one line
// per recorded call.
func (h *History) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	fmt.Fprintf(bw, "%s was called %d times:\n", h.Operation, h.Count)
	for _, c := range h.Calls {
		fmt.Fprintf(bw, "%s%s -> %s\n", h.Operation, c.Input, c.Output)
	}

	err := bw.Flush()
	return cw.n, err
}

// Replay writes the call report of the operation identified by id to w.
func Replay(ctx context.Context, w io.Writer, s store.Store, id string) error {
	h, err := LoadHistory(ctx, s, id)
	if err != nil {
		return err
	}
	_, err = h.WriteTo(w)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
