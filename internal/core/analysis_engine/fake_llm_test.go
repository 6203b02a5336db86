package analysis_engine

import (
	"context"
	"sync"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
)

// fakeLLM replays canned answers and records every request.
type fakeLLM struct {
	mu       sync.Mutex
	answer   string
	chunks   []string
	err      error
	requests []core.LLMRequest
}

func (f *fakeLLM) Complete(_ context.Context, req core.LLMRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.answer, f.err
}

func (f *fakeLLM) Stream(_ context.Context, req core.LLMRequest, onText func(string)) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, c := range f.chunks {
		onText(c)
	}
	return nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}
