// Package compress provides the reversible byte-stream compression used
// for stored article bodies.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/StashGoat/internal/types"
)

// Compress encodes UTF-8 text as a brotli byte stream.
func Compress(text string) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write([]byte(text)); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress restores the original text from a compressed byte stream.
// Corrupted input surfaces as ErrCorruptArticle, never as silent
// truncation.
func Decompress(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty body", types.ErrCorruptArticle)
	}
	r := brotli.NewReader(bytes.NewReader(data))
	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrCorruptArticle, err)
	}
	return string(text), nil
}
