package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/logger"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestImageFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/typed.bin":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		case "/page-1.png":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pngHeader)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := newImageFetcher(srv.Client())

	img, err := f.fetch(context.Background(), srv.URL+"/typed.bin")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.mimeType)
	assert.Equal(t, []byte("jpeg-bytes"), img.data)

	img, err = f.fetch(context.Background(), srv.URL+"/page-1.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.mimeType)

	_, err = f.fetch(context.Background(), srv.URL+"/missing.png")
	assert.ErrorContains(t, err, "status 404")
}

func TestGeminiPartsSkipUnreachableImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page-1.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	g := &GeminiLLM{images: newImageFetcher(srv.Client()), log: logger.Discard()}
	parts, err := g.parts(context.Background(), core.LLMRequest{
		Prompt:    "describe",
		ImageURLs: []string{srv.URL + "/gone.png", srv.URL + "/page-1.png"},
	})
	require.NoError(t, err)

	require.Len(t, parts, 2)
	assert.Equal(t, genai.Text("describe"), parts[0])
	blob, ok := parts[1].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "image/png", blob.MIMEType)
}

func TestGeminiPartsStopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &GeminiLLM{images: newImageFetcher(nil), log: logger.Discard()}
	_, err := g.parts(ctx, core.LLMRequest{Prompt: "p", ImageURLs: []string{"http://127.0.0.1:1/x.png"}})
	assert.ErrorIs(t, err, context.Canceled)
}
