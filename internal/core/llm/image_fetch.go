package llm

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
)

const maxImageBytes = 20 << 20

type fetchedImage struct {
	mimeType string
	data     []byte
}

// imageFetcher downloads page thumbnails for backends that need inline image bytes.
type imageFetcher struct {
	client *http.Client
}

func newImageFetcher(client *http.Client) *imageFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &imageFetcher{client: client}
}

func (f *imageFetcher) fetch(ctx context.Context, url string) (*fetchedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("image request %s: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("image read %s: %w", url, err)
	}
	return &fetchedImage{mimeType: imageMIME(resp.Header.Get("Content-Type"), url, data), data: data}, nil
}

// imageMIME prefers the served type, then the extension, then sniffing.
func imageMIME(header, url string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	if mt := mime.TypeByExtension(path.Ext(url)); strings.HasPrefix(mt, "image/") {
		return mt
	}
	return http.DetectContentType(data)
}
