package ingestion_engine

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	db "github.com/moskvinegor321/Project-analyzer/internal/core/database"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

const (
	docsCacheTTL   = 24 * time.Hour
	docsSeparator  = "\n\n---\n\n"
	maxDocBodySize = 10 << 20
)

// DocsBundle is fetched documentation in markdown form, cached per URL list.
type DocsBundle struct {
	RawMarkdown string            `json:"rawMarkdown"`
	Chunks      []models.DocChunk `json:"chunks"`
	SourceURLs  []string          `json:"sourceUrls"`
}

// DocumentationFetcher downloads documentation pages from allowed domains and converts them to markdown.
type DocumentationFetcher struct {
	client  *http.Client
	kv      core.KVStore
	allowed []string
	policy  *bluemonday.Policy
	conv    *converter.Converter
	log     *slog.Logger
}

// NewDocumentationFetcher builds a fetcher; an empty allowed list accepts any host.
func NewDocumentationFetcher(kv core.KVStore, allowed []string, timeout time.Duration, log *slog.Logger) *DocumentationFetcher {
	return &DocumentationFetcher{
		client:  &http.Client{Timeout: timeout},
		kv:      kv,
		allowed: allowed,
		policy:  bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		log: log.With("component", "docs"),
	}
}

// FetchAndChunk returns the markdown and chunks for urls, served from cache unless forceRefresh.
func (f *DocumentationFetcher) FetchAndChunk(ctx context.Context, urls []string, forceRefresh bool) (*DocsBundle, error) {
	key := docsCacheKey(urls)
	if !forceRefresh {
		var cached DocsBundle
		found, err := db.GetJSON(ctx, f.kv, key, &cached)
		if err != nil {
			f.log.Warn("docs cache read failed", "key", key, "err", err)
		}
		if found {
			return &cached, nil
		}
	}

	md, err := f.Fetch(ctx, urls)
	if err != nil {
		return nil, err
	}
	bundle := &DocsBundle{RawMarkdown: md, Chunks: Chunk(md), SourceURLs: urls}
	if err := db.SetJSON(ctx, f.kv, key, bundle, docsCacheTTL); err != nil {
		f.log.Warn("docs cache write failed", "key", key, "err", err)
	}
	return bundle, nil
}

// Fetch converts every page to markdown and joins them in order.
func (f *DocumentationFetcher) Fetch(ctx context.Context, urls []string) (string, error) {
	parts := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := f.checkAllowed(raw)
		if err != nil {
			return "", models.NewAppError(models.CodeDocsFetch, err)
		}
		md, err := f.fetchOne(ctx, u)
		if err != nil {
			return "", models.NewAppError(models.CodeDocsFetch, err)
		}
		parts = append(parts, md)
	}
	return strings.Join(parts, docsSeparator), nil
}

func (f *DocumentationFetcher) checkAllowed(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid documentation url %q", raw)
	}
	if len(f.allowed) == 0 {
		return u, nil
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range f.allowed {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("domain %s is not allowed", host)
}

func (f *DocumentationFetcher) fetchOne(ctx context.Context, u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("get %s: status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocBodySize))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", u, err)
	}

	clean := f.policy.Sanitize(string(body))
	md, err := f.conv.ConvertString(clean, converter.WithDomain(u.Scheme+"://"+u.Host))
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", u, err)
	}
	return strings.TrimSpace(md), nil
}

func docsCacheKey(urls []string) string {
	sum := sha1.Sum([]byte(strings.Join(urls, "|")))
	return "docs-cache:" + hex.EncodeToString(sum[:])
}
