package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextBackend(t *testing.T) {
	b := NewPlainTextBackend()
	assert.Equal(t, "plaintext", b.Name())

	out, err := b.Extract(context.Background(), []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestPlainTextBackendRejectsBinary(t *testing.T) {
	b := NewPlainTextBackend()

	_, err := b.Extract(context.Background(), []byte{0x00, 0x01, 0x02})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = b.Extract(context.Background(), []byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPDFBackendRejectsNonPDF(t *testing.T) {
	b := NewPDFBackend()

	_, err := b.Extract(context.Background(), []byte("just some text"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPDFBackendMalformed(t *testing.T) {
	b := NewPDFBackend()

	// Correct magic, garbage body: must fail as an error, never panic.
	_, err := b.Extract(context.Background(), []byte("%PDF-1.7 garbage"))
	assert.Error(t, err)
}

func TestRemoteBackendUnconfigured(t *testing.T) {
	b := NewRemoteBackend("", "")

	_, err := b.Extract(context.Background(), []byte("doc"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRemoteBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/extract", r.URL.Path)
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`{"text":"extracted text"}`))
	}))
	defer srv.Close()

	b := NewRemoteBackend(srv.URL, "sekrit")
	out, err := b.Extract(context.Background(), []byte("doc"))
	require.NoError(t, err)
	assert.Equal(t, "extracted text", out)
}

func TestRemoteBackendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewRemoteBackend(srv.URL, "")
	_, err := b.Extract(context.Background(), []byte("doc"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
