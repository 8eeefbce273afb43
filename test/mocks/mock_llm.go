package mocks

import (
	"context"
	"io"

	"codechat/internal/llm"
)

// MockCompletionClient replays scripted chunks for tests.
type MockCompletionClient struct {
	Chunks    []string
	StartErr  error // returned from StreamCompletion
	StreamErr error // returned mid-stream after Chunks are drained

	// LastSystem and LastMessages capture the most recent request.
	LastSystem   string
	LastMessages []llm.ChatMessage
}

func NewMockCompletionClient(chunks ...string) *MockCompletionClient {
	return &MockCompletionClient{Chunks: chunks}
}

func (m *MockCompletionClient) StreamCompletion(ctx context.Context, system string, messages []llm.ChatMessage) (llm.CompletionStream, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	m.LastSystem = system
	m.LastMessages = messages
	return &mockCompletionStream{chunks: m.Chunks, err: m.StreamErr}, nil
}

func (m *MockCompletionClient) Close() error {
	return nil
}

type mockCompletionStream struct {
	chunks []string
	next   int
	err    error
}

func (s *mockCompletionStream) Recv() (string, error) {
	if s.next >= len(s.chunks) {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	chunk := s.chunks[s.next]
	s.next++
	return chunk, nil
}

func (s *mockCompletionStream) Close() error {
	return nil
}
