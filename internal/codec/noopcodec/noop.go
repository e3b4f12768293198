// Package noopcodec provides a codec that stores bodies uncompressed.
package noopcodec

import (
	"io"

	"github.com/discochess/callcache/internal/codec"
)

// Compile-time check that Codec implements codec.BlockCodec.
var _ codec.BlockCodec = (*Codec)(nil)

// Codec passes data through unchanged.
type Codec struct{}

// New returns a new no-op codec.
func New() *Codec {
	return &Codec{}
}

// Reader returns r wrapped as a ReadCloser.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(r), nil
}

// Writer returns w wrapped as a WriteCloser.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	if wc, ok := w.(io.WriteCloser); ok {
		return wc, nil
	}
	return nopWriteCloser{w}, nil
}

// EncodeAll returns src unchanged.
func (c *Codec) EncodeAll(src []byte) ([]byte, error) { return src, nil }

// DecodeAll returns src unchanged.
func (c *Codec) DecodeAll(src []byte) ([]byte, error) { return src, nil }

// Name returns "none".
func (c *Codec) Name() string {
	return "none"
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
