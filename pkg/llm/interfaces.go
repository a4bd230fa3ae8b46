// Package llm wraps the remote text-generation providers used to enrich readings.
package llm

import (
	"context"
)

// LLMClient is the provider-neutral text generation interface.
// Use it for dependency injection so tests can substitute MockLLMClient.
type LLMClient interface {
	// GenerateResponse returns a single completion for prompt.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// GenerateResponseResult is a completion with token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*GeminiClient)(nil)
)
