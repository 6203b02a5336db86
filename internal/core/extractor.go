package core

import (
	"context"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// ExtractedText represents the result of text extraction, potentially with metadata.
type ExtractedText struct {
	Text      string
	PageCount int
	Metadata  map[string]string
}

// DocumentExtractor pulls raw text out of a binary document.
// The contentType hint picks the parsing strategy.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (*ExtractedText, error)
}

// PageInspector produces per-page metadata for paginated formats, capped at a configured page count.
// Thumbnails are stored under keyPrefix.
type PageInspector interface {
	PageInfo(ctx context.Context, data []byte, keyPrefix string) ([]models.PageInfo, error)
}
