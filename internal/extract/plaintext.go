package extract

import (
	"bytes"
	"context"
	"unicode/utf8"
)

// PlainTextBackend passes valid UTF-8 documents through as-is. Binary input
// is reported as unsupported so the chain can fall through.
type PlainTextBackend struct{}

func NewPlainTextBackend() *PlainTextBackend {
	return &PlainTextBackend{}
}

func (b *PlainTextBackend) Name() string { return "plaintext" }

func (b *PlainTextBackend) Extract(_ context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", ErrUnsupported
	}
	return string(data), nil
}
