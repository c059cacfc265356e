// Package llm provides the completion collaborator: one interface over the
// supported language-model providers.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrRateLimited marks a provider failure caused by request throttling.
// Providers wrap it so callers can match with errors.Is.
var ErrRateLimited = errors.New("completion provider rate limited")

// ErrNotConfigured is returned by Unavailable for every request.
var ErrNotConfigured = errors.New("no completion provider configured")

// CompletionRequest is a single-turn completion: a system instruction and
// the user's text. Model, token limit and temperature come from Config.
type CompletionRequest struct {
	System string
	Prompt string
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// defaultMaxTokens applies when Config.MaxTokens is zero and the provider
// requires a limit.
const defaultMaxTokens = 500

// Config selects and parameterises a provider. Temperature is sent as
// configured, zero included.
type Config struct {
	Provider    Provider
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// NewClient creates a new LLM client based on provider.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg)
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// Unavailable is the client used when no provider is configured. Every call
// fails, which the chat service turns into its generic fallback reply.
type Unavailable struct{}

func (Unavailable) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return nil, ErrNotConfigured
}

func (Unavailable) Name() string { return "none" }

func rateLimited(err error) error {
	return fmt.Errorf("%w: %v", ErrRateLimited, err)
}
