// Package codec provides compression for cached page bodies.
package codec

import (
	"bytes"
	"fmt"
	"io"
)

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Name identifies the codec in configuration, e.g. "zstd" or "none".
	Name() string
}

// BlockCodec is implemented by codecs that can compress a whole buffer
// without going through a stream.
type BlockCodec interface {
	Codec
	EncodeAll(src []byte) ([]byte, error)
	DecodeAll(src []byte) ([]byte, error)
}

// Encode compresses data in one shot.
func Encode(c Codec, data []byte) ([]byte, error) {
	if bc, ok := c.(BlockCodec); ok {
		return bc.EncodeAll(data)
	}

	var buf bytes.Buffer
	w, err := c.Writer(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating %s writer: %w", c.Name(), err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flushing %s writer: %w", c.Name(), err)
	}
	return buf.Bytes(), nil
}

// Decode decompresses data in one shot.
func Decode(c Codec, data []byte) ([]byte, error) {
	if bc, ok := c.(BlockCodec); ok {
		return bc.DecodeAll(data)
	}

	r, err := c.Reader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating %s reader: %w", c.Name(), err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return out, nil
}
