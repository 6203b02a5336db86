package analysis_engine

import (
	"context"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// SelectImages asks which pages carry diagrams worth attaching to the analysis.
func (r *Reasoner) SelectImages(ctx context.Context, pages []models.PageInfo, maxImages int) ([]models.PageSelection, error) {
	if len(pages) == 0 || maxImages <= 0 {
		return nil, nil
	}
	raw, err := r.CallJSON(ctx, imageSelectionPrompt(pages, maxImages), nil)
	if err != nil {
		return nil, err
	}
	return ParseImageSelection(raw)
}

// SelectChunks asks which documentation chunks are relevant. Only metadata and previews are sent.
func (r *Reasoner) SelectChunks(ctx context.Context, chunks []models.ChunkMeta) ([]models.ChunkSelection, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	raw, err := r.CallJSON(ctx, chunkSelectionPrompt(chunks), nil)
	if err != nil {
		return nil, err
	}
	return ParseChunkSelection(raw)
}

// FilterPageSelections drops pages that were not offered and repeats, keeps model order and caps at max.
func FilterPageSelections(sel []models.PageSelection, offered []models.PageInfo, max int) []models.SelectedImage {
	urls := make(map[int]string, len(offered))
	for _, p := range offered {
		urls[p.Page] = p.ThumbnailURL
	}
	seen := make(map[int]bool, len(sel))
	out := make([]models.SelectedImage, 0, len(sel))
	for _, s := range sel {
		if len(out) == max {
			break
		}
		u, ok := urls[s.Page]
		if !ok || seen[s.Page] {
			continue
		}
		seen[s.Page] = true
		out = append(out, models.SelectedImage{Page: s.Page, URL: u, Reason: s.Reason})
	}
	return out
}

// SelectedChunk pairs a chosen chunk with the model's reason.
type SelectedChunk struct {
	Chunk  models.DocChunk
	Reason string
}

// FilterChunkSelections resolves ids against the offered chunks, dropping unknown ids and repeats.
func FilterChunkSelections(sel []models.ChunkSelection, offered []models.DocChunk) []SelectedChunk {
	byID := make(map[string]models.DocChunk, len(offered))
	for _, c := range offered {
		byID[c.ID] = c
	}
	seen := make(map[string]bool, len(sel))
	out := make([]SelectedChunk, 0, len(sel))
	for _, s := range sel {
		c, ok := byID[s.ID]
		if !ok || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, SelectedChunk{Chunk: c, Reason: s.Reason})
	}
	return out
}
