package analysis_engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// Reasoner runs every budget-guarded call to the reasoning service.
type Reasoner struct {
	llm     core.LLMProvider
	guard   BudgetGuard
	timeout time.Duration
	log     *slog.Logger
}

func NewReasoner(llm core.LLMProvider, guard BudgetGuard, timeout time.Duration, log *slog.Logger) *Reasoner {
	return &Reasoner{llm: llm, guard: guard, timeout: timeout, log: log.With("component", "reasoner")}
}

func (r *Reasoner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// CallJSON makes one JSON-mode call. Over budget it fails with BUDGET_EXCEEDED before any network traffic.
func (r *Reasoner) CallJSON(ctx context.Context, prompt string, images []string) (string, error) {
	est := EstimateTokens(prompt) + len(images)*tokensPerImageJSON
	if r.guard.Exceeded(est) {
		return "", models.NewAppError(models.CodeBudgetExceeded,
			fmt.Errorf("estimated %d input tokens, $%.4f", est, EstimateCostUSD(est, r.guard.MaxOutputTokens)))
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	out, err := r.llm.Complete(ctx, core.LLMRequest{
		Prompt:    prompt,
		ImageURLs: images,
		MaxTokens: r.guard.MaxOutputTokens,
		JSON:      true,
	})
	if err != nil {
		return "", fmt.Errorf("reasoning call: %w", err)
	}
	return out, nil
}
