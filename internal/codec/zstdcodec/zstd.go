// Package zstdcodec provides a zstd compression codec.
package zstdcodec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/discochess/callcache/internal/codec"
)

// Compile-time check that Codec implements codec.BlockCodec.
var _ codec.BlockCodec = (*Codec)(nil)

// Codec implements zstd compression. Whole-buffer calls share one encoder
// and one decoder, both safe for concurrent use.
type Codec struct {
	level   zstd.EncoderLevel
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New returns a zstd codec at the default compression level.
func New() *Codec {
	c, err := NewWithLevel(zstd.SpeedDefault)
	if err != nil {
		// Construction with nil writers/readers and a valid level cannot fail.
		panic(err)
	}
	return c
}

// NewWithLevel returns a zstd codec at the given compression level.
func NewWithLevel(level zstd.EncoderLevel) (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Codec{level: level, encoder: enc, decoder: dec}, nil
}

// Reader wraps r to decompress zstd data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// Writer wraps w to compress data with zstd.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(c.level))
}

// EncodeAll compresses src as a single frame. Empty input stays empty.
func (c *Codec) EncodeAll(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}
	return c.encoder.EncodeAll(src, nil), nil
}

// DecodeAll decompresses a buffer produced by EncodeAll or Writer.
func (c *Codec) DecodeAll(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}
	out, err := c.decoder.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

// Name returns "zstd".
func (c *Codec) Name() string {
	return "zstd"
}
