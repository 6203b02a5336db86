package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv.
// PDFs longer than maxPages are trimmed with pdfcpu before conversion.
type DocconvExtractor struct {
	useReadability bool
	maxPages       int
	log            *slog.Logger
}

func NewDocconvExtractor(maxPages int, log *slog.Logger) *DocconvExtractor {
	return &DocconvExtractor{maxPages: maxPages, log: log.With("component", "extractor")}
}

// ExtractText converts the document to plain text based on its content type.
func (e *DocconvExtractor) ExtractText(ctx context.Context, data []byte, contentType string) (*core.ExtractedText, error) {
	if contentType == MimePDF {
		return e.extractPDF(ctx, data)
	}

	text, err := e.convert(data, contentType)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &core.ExtractedText{Text: text, Metadata: map[string]string{"contentType": contentType}}, nil
}

func (e *DocconvExtractor) convert(data []byte, contentType string) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), contentType, e.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv: extraction failed for content type '%s': %w", contentType, err)
	}
	return res.Body, nil
}

func (e *DocconvExtractor) extractPDF(ctx context.Context, data []byte) (*core.ExtractedText, error) {
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), pdfConfig())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	pages := pctx.PageCount
	src := data
	skipped := 0
	if e.maxPages > 0 && pages > e.maxPages {
		var trimmed bytes.Buffer
		sel := []string{fmt.Sprintf("1-%d", e.maxPages)}
		if err := api.Trim(bytes.NewReader(data), &trimmed, sel, pdfConfig()); err != nil {
			return nil, fmt.Errorf("pdfcpu trim: %w", err)
		}
		src = trimmed.Bytes()
		skipped = pages - e.maxPages
		pages = e.maxPages
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := e.convert(src, MimePDF)
	if err != nil || strings.TrimSpace(text) == "" {
		// docconv depends on poppler's pdftotext; fall back to the content streams.
		e.log.Warn("docconv pdf conversion empty, using content streams", "err", err)
		text = pagesText(pctx, pages)
	}
	if skipped > 0 {
		text += fmt.Sprintf("\n[skipped %d pages due to PDF_MAX_PAGES limit]", skipped)
	}

	return &core.ExtractedText{
		Text:      text,
		PageCount: pctx.PageCount,
		Metadata: map[string]string{
			"contentType":  MimePDF,
			"skippedPages": strconv.Itoa(skipped),
		},
	}, nil
}

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
