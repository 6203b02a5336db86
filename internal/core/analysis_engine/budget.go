package analysis_engine

import "unicode/utf8"

const (
	inputPricePer1K  = 0.003
	outputPricePer1K = 0.015

	// tokensPerImageJSON is the per-image surcharge on generic JSON calls.
	tokensPerImageJSON = 100
	// tokensPerImageAnalysis and analysisOverheadTokens size the analysis prompt.
	tokensPerImageAnalysis = 50
	analysisOverheadTokens = 500

	truncatedSummaryChars = 4000
	truncationNotice      = "\n[truncated due to budget guard]"
)

// EstimateTokens is the 4-characters-per-token heuristic, rounded up.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// EstimateCostUSD prices a call at $0.003 per 1K input and $0.015 per 1K output tokens.
func EstimateCostUSD(tokensIn, tokensOut int) float64 {
	return float64(tokensIn)/1000*inputPricePer1K + float64(tokensOut)/1000*outputPricePer1K
}

// BudgetGuard bounds a single reasoning call by estimated input tokens and cost.
type BudgetGuard struct {
	MaxInputTokens   int
	MaxOutputTokens  int
	CostSoftLimitUSD float64
}

// Exceeded reports whether a call with tokensIn input tokens is over budget.
func (g BudgetGuard) Exceeded(tokensIn int) bool {
	return tokensIn > g.MaxInputTokens || EstimateCostUSD(tokensIn, g.MaxOutputTokens) > g.CostSoftLimitUSD
}

// truncateSummary keeps the first truncatedSummaryChars characters and appends the notice.
func truncateSummary(s string) string {
	i := 0
	for pos := range s {
		if i == truncatedSummaryChars {
			return s[:pos] + truncationNotice
		}
		i++
	}
	return s + truncationNotice
}
