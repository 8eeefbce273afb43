package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codechat/internal/config"
	"codechat/pkg/logger"
)

// chatCompletionRequest is the OpenAI-compatible request body.
type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
	Stream    bool          `json:"stream"`
}

// chatCompletionChunk is one SSE frame of a streamed response.
type chatCompletionChunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// openAIClient implements CompletionClient against any
// OpenAI-compatible chat completions endpoint.
type openAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     logger.Logger
}

func newOpenAIClient(cfg *config.ConfigLLM, logger logger.Logger) (*openAIClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url cannot be empty")
	}

	return &openAIClient{
		apiKey:    cfg.ApiKey,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			// Streamed bodies stay open well past header receipt, so
			// the deadline comes from the request context instead.
			Timeout: 0,
		},
		logger: logger,
	}, nil
}

func (c *openAIClient) StreamCompletion(ctx context.Context, system string, messages []ChatMessage) (CompletionStream, error) {
	startTime := time.Now()

	reqMessages := make([]ChatMessage, 0, len(messages)+1)
	if system != "" {
		reqMessages = append(reqMessages, ChatMessage{Role: "system", Content: system})
	}
	reqMessages = append(reqMessages, messages...)

	req := &chatCompletionRequest{
		Model:     c.model,
		Messages:  reqMessages,
		MaxTokens: c.maxTokens,
		Stream:    true,
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, strings.NewReader(string(requestBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	httpReq.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("LLM stream started - BaseURL: %s, Model: %s, MaxTokens: %d",
		c.baseURL, c.model, c.maxTokens)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("LLM stream failed - error: %v", err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("LLM stream connected after %v", time.Since(startTime))

	return &openAIStream{
		body:   resp.Body,
		reader: bufio.NewReader(resp.Body),
	}, nil
}

func (c *openAIClient) Close() error {
	return nil
}

type openAIStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
}

// Recv returns the next content delta. The stream terminates on the
// [DONE] sentinel or a finish_reason, both mapped to io.EOF.
func (s *openAIStream) Recv() (string, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return "", io.EOF
			}
			return "", fmt.Errorf("failed to read stream: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return "", io.EOF
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		if content := chunk.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
		if chunk.Choices[0].FinishReason != "" {
			return "", io.EOF
		}
	}
}

func (s *openAIStream) Close() error {
	return s.body.Close()
}
