package analysis_engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 2, EstimateTokens("привет"))
}

func TestEstimateCostUSD(t *testing.T) {
	assert.InDelta(t, 0.003+0.03072, EstimateCostUSD(1000, 2048), 1e-9)
	assert.InDelta(t, 0.0, EstimateCostUSD(0, 0), 1e-12)
}

func TestBudgetGuardExceeded(t *testing.T) {
	g := BudgetGuard{MaxInputTokens: 180000, MaxOutputTokens: 2048, CostSoftLimitUSD: 0.5}

	assert.False(t, g.Exceeded(1000))
	// cost crosses $0.50 at ~156,427 input tokens, before the token ceiling
	assert.True(t, g.Exceeded(160000))
	assert.True(t, BudgetGuard{MaxInputTokens: 10, MaxOutputTokens: 1, CostSoftLimitUSD: 100}.Exceeded(11))
}

func TestTruncateSummary(t *testing.T) {
	long := strings.Repeat("ж", 5000)
	got := truncateSummary(long)

	assert.True(t, strings.HasSuffix(got, "\n[truncated due to budget guard]"))
	assert.Equal(t, 4000, utf8.RuneCountInString(strings.TrimSuffix(got, truncationNotice)))

	assert.Equal(t, "short"+truncationNotice, truncateSummary("short"))
}
