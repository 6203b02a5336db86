package analysis_engine

import (
	"context"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// DiagramPage is a page thumbnail offered for diagram detection.
type DiagramPage struct {
	Index    int
	ImageURL string
}

// DetectDiagrams looks at up to maxPages thumbnails. Every failure degrades to no findings.
func (r *Reasoner) DetectDiagrams(ctx context.Context, pages []DiagramPage, maxPages int) []models.DiagramFinding {
	if maxPages > 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}
	if len(pages) == 0 {
		return nil
	}

	images := make([]string, len(pages))
	byIndex := make(map[int]string, len(pages))
	for i, p := range pages {
		images[i] = p.ImageURL
		byIndex[p.Index] = p.ImageURL
	}

	raw, err := r.CallJSON(ctx, diagramDetectionPrompt(pages), images)
	if err != nil {
		r.log.Warn("diagram detection failed", "err", err)
		return nil
	}
	findings, err := ParseFindings(raw)
	if err != nil {
		r.log.Warn("diagram detection returned invalid JSON", "err", err)
		return nil
	}

	for i := range findings {
		if findings[i].ImageURL == "" {
			findings[i].ImageURL = byIndex[findings[i].Page]
		}
	}
	return findings
}
