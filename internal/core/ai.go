package core

import "context"

// LLMRequest is one call to the reasoning service.
type LLMRequest struct {
	Prompt    string
	ImageURLs []string
	MaxTokens int
	// JSON asks the backend to constrain output to a JSON document when it supports that.
	JSON bool
}

// LLMProvider is the reasoning service. Implementations use one model at temperature 0.
type LLMProvider interface {
	Complete(ctx context.Context, req LLMRequest) (string, error)
	// Stream delivers text increments to onText in order and returns when the stream ends.
	Stream(ctx context.Context, req LLMRequest, onText func(string)) error
}
