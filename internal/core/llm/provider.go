package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/moskvinegor321/Project-analyzer/internal/config"
	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// Unconfigured stands in for a backend that could not be built; every call fails with the reason.
type Unconfigured struct {
	Reason error
}

func (u Unconfigured) Complete(context.Context, core.LLMRequest) (string, error) {
	return "", fmt.Errorf("reasoning service %w: %v", models.ErrNotConfigured, u.Reason)
}

func (u Unconfigured) Stream(context.Context, core.LLMRequest, func(string)) error {
	return fmt.Errorf("reasoning service %w: %v", models.ErrNotConfigured, u.Reason)
}

// New builds the backend named by AI_PROVIDER. The returned close func releases its connections.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (core.LLMProvider, func() error) {
	var (
		provider core.LLMProvider
		closeFn  = func() error { return nil }
		err      error
	)
	switch cfg.AIProvider {
	case "openai":
		provider, err = NewOpenAILLM(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.AIModel)
	default:
		var g *GeminiLLM
		g, err = NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.AIModel, &http.Client{Timeout: cfg.HTTPTimeout}, log)
		if err == nil {
			provider, closeFn = g, g.Close
		}
	}
	if err != nil {
		log.Warn("reasoning service unavailable, analyses will fail", "provider", cfg.AIProvider, "err", err)
		return Unconfigured{Reason: err}, closeFn
	}
	log.Info("reasoning service ready", "provider", cfg.AIProvider, "model", cfg.AIModel)
	return provider, closeFn
}
