package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
)

type GeminiLLM struct {
	client    *genai.Client
	modelName string
	images    *imageFetcher
	log       *slog.Logger
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string, httpClient *http.Client, log *slog.Logger) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not found")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}
	return &GeminiLLM{
		client:    cl,
		modelName: modelName,
		images:    newImageFetcher(httpClient),
		log:       log.With("component", "gemini"),
	}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiLLM) model(req core.LLMRequest) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(0)
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSON {
		m.ResponseMIMEType = "application/json"
	}
	return m
}

// parts inlines the referenced images; Gemini only takes URIs of files uploaded to its own File API.
// An image that cannot be fetched is left out.
func (g *GeminiLLM) parts(ctx context.Context, req core.LLMRequest) ([]genai.Part, error) {
	parts := []genai.Part{genai.Text(req.Prompt)}
	for _, u := range req.ImageURLs {
		img, err := g.images.fetch(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.log.Warn("skipping image", "url", u, "err", err)
			continue
		}
		parts = append(parts, genai.Blob{MIMEType: img.mimeType, Data: img.data})
	}
	return parts, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, req core.LLMRequest) (string, error) {
	parts, err := g.parts(ctx, req)
	if err != nil {
		return "", err
	}
	resp, err := g.model(req).GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return responseText(resp), nil
}

func (g *GeminiLLM) Stream(ctx context.Context, req core.LLMRequest, onText func(string)) error {
	parts, err := g.parts(ctx, req)
	if err != nil {
		return err
	}
	iter := g.model(req).GenerateContentStream(ctx, parts...)
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}
		if text := responseText(resp); text != "" {
			onText(text)
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
