package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sashabaranov/go-openai"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
)

// OpenAILLM talks to the chat completions API; image references are passed as URLs.
type OpenAILLM struct {
	client    *openai.Client
	modelName string
}

func NewOpenAILLM(apiKey, baseURL, modelName string) (*OpenAILLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not found")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = openai.GPT4o
	}
	return &OpenAILLM{client: openai.NewClientWithConfig(cfg), modelName: modelName}, nil
}

func (o *OpenAILLM) request(req core.LLMRequest) openai.ChatCompletionRequest {
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.Prompt}}
	for _, u := range req.ImageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: u, Detail: openai.ImageURLDetailAuto},
		})
	}
	out := openai.ChatCompletionRequest{
		Model:    o.modelName,
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, MultiContent: parts}},
		// zero is dropped by omitempty and the API would fall back to 1
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return out
}

func (o *OpenAILLM) Complete(ctx context.Context, req core.LLMRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.request(req))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAILLM) Stream(ctx context.Context, req core.LLMRequest, onText func(string)) error {
	stream, err := o.client.CreateChatCompletionStream(ctx, o.request(req))
	if err != nil {
		return fmt.Errorf("openai stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("openai stream: %w", err)
		}
		for _, ch := range resp.Choices {
			if ch.Delta.Content != "" {
				onText(ch.Delta.Content)
			}
		}
	}
}

var _ core.LLMProvider = (*OpenAILLM)(nil)
