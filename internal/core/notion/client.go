// Package notion publishes analysis pages through the Notion API.
package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// Notion accepts at most 100 children per request.
const maxBlocksPerRequest = 100

type Client struct {
	api        *notionapi.Client
	configured bool
	databaseID notionapi.DatabaseID
}

var _ core.PageClient = (*Client)(nil)

// NewClient talks to baseURL instead of api.notion.com when it is set; the /v1 suffix is optional.
func NewClient(baseURL, token, databaseID string, timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}
	if u, err := url.Parse(strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1")); err == nil && u.Host != "" && u.Host != "api.notion.com" {
		httpClient.Transport = baseURLTransport{base: u, next: http.DefaultTransport}
	}
	return &Client{
		api:        notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(httpClient)),
		configured: token != "",
		databaseID: notionapi.DatabaseID(databaseID),
	}
}

// CreatePage creates a row in the configured database with the first batch of blocks as children.
func (c *Client) CreatePage(ctx context.Context, properties notionapi.Properties, blocks []notionapi.Block) (*models.PageRef, error) {
	if !c.configured || c.databaseID == "" {
		return nil, fmt.Errorf("notion %w: NOTION_TOKEN or NOTION_DATABASE_ID missing", models.ErrNotConfigured)
	}

	first, rest := splitBlocks(blocks)
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.databaseID,
		},
		Properties: properties,
		Children:   first,
	})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	id := string(page.ID)
	if len(rest) > 0 {
		if err := c.AppendBlocks(ctx, id, rest); err != nil {
			return nil, err
		}
	}
	return &models.PageRef{ID: id, URL: page.URL}, nil
}

func (c *Client) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) error {
	if !c.configured {
		return fmt.Errorf("notion %w: NOTION_TOKEN missing", models.ErrNotConfigured)
	}
	if _, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Properties: properties}); err != nil {
		return fmt.Errorf("update page %s: %w", pageID, err)
	}
	return nil
}

// AppendBlocks adds children to a page, 100 blocks per request.
func (c *Client) AppendBlocks(ctx context.Context, pageID string, blocks []notionapi.Block) error {
	if !c.configured {
		return fmt.Errorf("notion %w: NOTION_TOKEN missing", models.ErrNotConfigured)
	}
	for len(blocks) > 0 {
		var batch []notionapi.Block
		batch, blocks = splitBlocks(blocks)
		_, err := c.api.Block.AppendChildren(ctx, notionapi.BlockID(pageID), &notionapi.AppendBlockChildrenRequest{Children: batch})
		if err != nil {
			return fmt.Errorf("append blocks to %s: %w", pageID, err)
		}
	}
	return nil
}

func splitBlocks(blocks []notionapi.Block) (head, rest []notionapi.Block) {
	if len(blocks) <= maxBlocksPerRequest {
		return blocks, nil
	}
	return blocks[:maxBlocksPerRequest], blocks[maxBlocksPerRequest:]
}

// baseURLTransport sends every request to another host, keeping the API path.
type baseURLTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t baseURLTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.base.Scheme
	r.URL.Host = t.base.Host
	r.URL.Path = strings.TrimRight(t.base.Path, "/") + r.URL.Path
	r.Host = t.base.Host
	return t.next.RoundTrip(r)
}
