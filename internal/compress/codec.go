// Package compress wraps the deflate-style codec used for oversized values.
// Each engine owns its Codec instance; there is no shared global state.
package compress

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"
)

// Codec - zlib compressor with a fixed level chosen at construction.
type Codec struct {
	level int
}

// NewCodec - builds a codec. Levels outside the flate range fall back to the default.
func NewCodec(level int) *Codec {
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		level = flate.DefaultCompression
	}
	return &Codec{level: level}
}

// Compress - deflates the given payload.
func (c *Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if _, err = w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err = w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress - inflates a payload produced by Compress.
func (c *Codec) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}
