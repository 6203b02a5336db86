package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

var _ core.PageInspector = (*PDFPageInspector)(nil)

// PDFPageInspector reports per-page text size and publishes the widest embedded image
// of each page as its thumbnail.
type PDFPageInspector struct {
	obj      core.ObjectClient
	maxPages int
	minWidth int
	log      *slog.Logger
}

// NewPDFPageInspector treats images narrower than renderWidth/8 (logos, bullets) as non-thumbnails.
func NewPDFPageInspector(obj core.ObjectClient, maxPages, renderWidth int, log *slog.Logger) *PDFPageInspector {
	return &PDFPageInspector{
		obj:      obj,
		maxPages: maxPages,
		minWidth: renderWidth / 8,
		log:      log.With("component", "pdf-pages"),
	}
}

func (p *PDFPageInspector) PageInfo(ctx context.Context, data []byte, keyPrefix string) ([]models.PageInfo, error) {
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), pdfConfig())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	n := pctx.PageCount
	if p.maxPages > 0 && n > p.maxPages {
		n = p.maxPages
	}

	pages := make([]models.PageInfo, 0, n)
	for nr := 1; nr <= n; nr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info := models.PageInfo{Page: nr, TextChars: utf8.RuneCountInString(pageText(pctx, nr))}

		img, err := p.widestImage(pctx, nr)
		if err != nil {
			p.log.Warn("page images unreadable", "page", nr, "err", err)
		}
		if img != nil {
			url, err := p.upload(ctx, keyPrefix, nr, img)
			if err != nil {
				return nil, err
			}
			info.ThumbnailURL = url
		}
		pages = append(pages, info)
	}
	return pages, nil
}

func (p *PDFPageInspector) widestImage(pctx *model.Context, nr int) (*model.Image, error) {
	imgs, err := pdfcpu.ExtractPageImages(pctx, nr, false)
	if err != nil {
		return nil, err
	}
	var best *model.Image
	for k := range imgs {
		img := imgs[k]
		if img.Reader == nil || img.Width < p.minWidth {
			continue
		}
		if best == nil || img.Width > best.Width {
			best = &img
		}
	}
	return best, nil
}

func (p *PDFPageInspector) upload(ctx context.Context, prefix string, nr int, img *model.Image) (string, error) {
	data, err := io.ReadAll(img)
	if err != nil {
		return "", fmt.Errorf("read page %d image: %w", nr, err)
	}
	ext := img.FileType
	if ext == "" {
		ext = "png"
	}
	contentType := mime.TypeByExtension("." + ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("%s/page-%d.%s", prefix, nr, ext)
	url, err := p.obj.Put(ctx, key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload page %d thumbnail: %w", nr, err)
	}
	return url, nil
}
