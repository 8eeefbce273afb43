package llm

import (
	"context"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"codechat/internal/config"
	"codechat/pkg/logger"
)

// anthropicClient implements CompletionClient on the Anthropic
// Messages API.
type anthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    logger.Logger
}

func newAnthropicClient(cfg *config.ConfigLLM, logger logger.Logger) *anthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.ApiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &anthropicClient{
		client:    &client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

func (c *anthropicClient) StreamCompletion(ctx context.Context, system string, messages []ChatMessage) (CompletionStream, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages:  toMessageParams(messages),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	c.logger.Debug("anthropic stream started - model: %s, messages: %d", c.model, len(messages))

	stream := c.client.Messages.NewStreaming(ctx, params)
	return &anthropicStream{stream: stream}, nil
}

func (c *anthropicClient) Close() error {
	return nil
}

func toMessageParams(messages []ChatMessage) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			params = append(params, anthropic.NewAssistantMessage(block))
		} else {
			params = append(params, anthropic.NewUserMessage(block))
		}
	}
	return params
}

type anthropicStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

// Recv returns the next text delta, skipping non-text events.
func (s *anthropicStream) Recv() (string, error) {
	for s.stream.Next() {
		event := s.stream.Current()
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if deltaVariant.Text != "" {
					return deltaVariant.Text, nil
				}
			}
		}
	}

	if err := s.stream.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}
