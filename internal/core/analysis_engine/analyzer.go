package analysis_engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// Usage is the budget bookkeeping of one analysis call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Truncated    bool
	DocSummary   string // summary as sent, after any truncation
}

func (r *Reasoner) analysisTokens(summary string, in models.AnalysisInput) int {
	total := EstimateTokens(summary) + len(in.Images)*tokensPerImageAnalysis + analysisOverheadTokens
	for _, c := range in.SelectedChunks {
		total += EstimateTokens(c.Content)
	}
	return total
}

// Analyze streams the analysis, forwarding each text increment to onToken, and validates
// the accumulated answer once the stream ends.
func (r *Reasoner) Analyze(ctx context.Context, in models.AnalysisInput, onToken func(string)) (*models.AnalysisResult, Usage, error) {
	usage := Usage{DocSummary: in.DocSummary, OutputTokens: r.guard.MaxOutputTokens}

	tokens := r.analysisTokens(in.DocSummary, in)
	if r.guard.Exceeded(tokens) {
		usage.DocSummary = truncateSummary(in.DocSummary)
		usage.Truncated = true
		r.log.Warn("analysis over budget, summary truncated", "estimatedTokens", tokens)
		tokens = r.analysisTokens(usage.DocSummary, in)
	}
	usage.InputTokens = tokens
	usage.CostUSD = EstimateCostUSD(tokens, usage.OutputTokens)

	images := make([]string, len(in.Images))
	for i, img := range in.Images {
		images[i] = img.URL
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var full strings.Builder
	err := r.llm.Stream(ctx, core.LLMRequest{
		Prompt:    analysisPrompt(usage.DocSummary, in.SelectedChunks, in.Images),
		ImageURLs: images,
		MaxTokens: r.guard.MaxOutputTokens,
		JSON:      true,
	}, func(delta string) {
		full.WriteString(delta)
		if onToken != nil {
			onToken(delta)
		}
	})
	if err != nil {
		return nil, usage, fmt.Errorf("analysis stream: %w", err)
	}

	res, err := ParseAnalysis(full.String())
	if err != nil {
		return nil, usage, err
	}
	return res, usage, nil
}
