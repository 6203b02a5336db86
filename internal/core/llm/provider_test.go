package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moskvinegor321/Project-analyzer/internal/config"
	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/logger"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

func TestNewWithoutKeyIsUnconfigured(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	for _, provider := range []string{"gemini", "openai"} {
		t.Run(provider, func(t *testing.T) {
			p, closeFn := New(context.Background(), &config.Config{AIProvider: provider}, logger.Discard())
			require.IsType(t, Unconfigured{}, p)
			assert.NoError(t, closeFn())

			_, err := p.Complete(context.Background(), core.LLMRequest{Prompt: "x"})
			assert.True(t, errors.Is(err, models.ErrNotConfigured))
			err = p.Stream(context.Background(), core.LLMRequest{Prompt: "x"}, func(string) {})
			assert.True(t, errors.Is(err, models.ErrNotConfigured))
		})
	}
}

func TestOpenAIRequestShape(t *testing.T) {
	o, err := NewOpenAILLM("key", "", "")
	require.NoError(t, err)

	req := o.request(core.LLMRequest{Prompt: "hello", ImageURLs: []string{"https://img.test/1.png"}, MaxTokens: 100, JSON: true})

	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, 100, req.MaxTokens)
	require.NotNil(t, req.ResponseFormat)
	require.Len(t, req.Messages, 1)
	parts := req.Messages[0].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, "hello", parts[0].Text)
	assert.Equal(t, "https://img.test/1.png", parts[1].ImageURL.URL)
}
