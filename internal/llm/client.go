package llm

import (
	"context"
	"fmt"

	"codechat/internal/config"
	"codechat/pkg/logger"
)

// Providers supported by NewCompletionClient.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ChatMessage is one turn of model input.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// CompletionStream yields a model response incrementally. Recv returns
// io.EOF after the final chunk.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}

// CompletionClient streams chat completions from an upstream model.
type CompletionClient interface {
	// StreamCompletion starts a completion for the given system prompt
	// and message history
	StreamCompletion(ctx context.Context, system string, messages []ChatMessage) (CompletionStream, error)
	// Close releases client resources
	Close() error
}

// NewCompletionClient creates the client for the configured provider.
func NewCompletionClient(cfg *config.ConfigLLM, logger logger.Logger) (CompletionClient, error) {
	if cfg.ApiKey == "" {
		return nil, fmt.Errorf("api_key cannot be empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		return newAnthropicClient(cfg, logger), nil
	case ProviderOpenAI:
		return newOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
