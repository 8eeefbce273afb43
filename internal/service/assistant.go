package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"codechat/internal/llm"
	"codechat/internal/metrics"
	"codechat/internal/model"
	"codechat/internal/repository"
	"codechat/internal/utils"
	"codechat/pkg/logger"
)

// MessageStream hands a streaming assistant response to its consumer.
// The producer closes Chunks when the turn is over; Err reports any
// mid-stream failure and is valid only after Chunks is drained.
type MessageStream struct {
	// MessageID is the persisted assistant message being streamed into
	MessageID int64

	chunks chan string

	mu  sync.Mutex
	err error
}

// Chunks is the ordered stream of response text fragments.
func (m *MessageStream) Chunks() <-chan string {
	return m.chunks
}

// Err returns the streaming error, if any, once Chunks has closed.
func (m *MessageStream) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MessageStream) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// AssistantService orchestrates one conversational turn end to end.
type AssistantService interface {
	// ProcessMessage persists the user message, assembles context and
	// history, streams the model response into a placeholder assistant
	// message and finalizes it. Turns of the same conversation are
	// serialized.
	ProcessMessage(ctx context.Context, conversationID int64, content string) (*MessageStream, error)
}

type assistantService struct {
	messageRepo repository.MessageRepository
	contextSvc  ContextService
	client      llm.CompletionClient
	turnLocks   *utils.KeyMutex
	logger      logger.Logger
}

// NewAssistantService creates an assistant service.
func NewAssistantService(
	messageRepo repository.MessageRepository,
	contextSvc ContextService,
	client llm.CompletionClient,
	logger logger.Logger,
) AssistantService {
	return &assistantService{
		messageRepo: messageRepo,
		contextSvc:  contextSvc,
		client:      client,
		turnLocks:   utils.NewKeyMutex(),
		logger:      logger,
	}
}

func (s *assistantService) ProcessMessage(ctx context.Context, conversationID int64, content string) (*MessageStream, error) {
	lockKey := fmt.Sprintf("conversation:%d", conversationID)
	s.turnLocks.Lock(lockKey)

	stream, err := s.startTurn(ctx, conversationID, content)
	if err != nil {
		s.turnLocks.Unlock(lockKey)
		metrics.MessagesProcessed.WithLabelValues("failed").Inc()
		return nil, err
	}

	go func() {
		defer s.turnLocks.Unlock(lockKey)
		s.consume(ctx, stream)
	}()

	return stream.messageStream, nil
}

// turnState carries everything the streaming goroutine needs.
type turnState struct {
	conversationID int64
	placeholderID  int64
	upstream       llm.CompletionStream
	messageStream  *MessageStream
}

// startTurn runs the synchronous part of a turn: durable user message,
// context assembly, placeholder row and stream connection.
func (s *assistantService) startTurn(ctx context.Context, conversationID int64, content string) (*turnState, error) {
	// The user message is made durable before anything that can fail.
	userMessage := &model.Message{
		ConversationID: conversationID,
		Role:           model.RoleUser,
		Content:        content,
	}
	if err := s.messageRepo.CreateMessage(userMessage); err != nil {
		return nil, err
	}

	conversationContext, err := s.contextSvc.GetConversationContext(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	systemPrompt := buildSystemPrompt(conversationContext.Context)
	history := historyToChatMessages(conversationContext.RelevantHistory)

	placeholder := &model.Message{
		ConversationID:  conversationID,
		Role:            model.RoleAssistant,
		Content:         "",
		ContextSnapshot: conversationContext.Context,
	}
	if err := s.messageRepo.CreateMessage(placeholder); err != nil {
		return nil, err
	}

	upstream, err := s.client.StreamCompletion(ctx, systemPrompt, history)
	if err != nil {
		s.logger.Error("model stream failed to start for conversation %d: %v", conversationID, err)
		note := fmt.Sprintf("The assistant could not be reached: %v", err)
		if updateErr := s.messageRepo.UpdateMessageContent(placeholder.ID, note); updateErr != nil {
			s.logger.Error("failed to persist stream failure note: %v", updateErr)
		}
		return nil, err
	}

	return &turnState{
		conversationID: conversationID,
		placeholderID:  placeholder.ID,
		upstream:       upstream,
		messageStream: &MessageStream{
			MessageID: placeholder.ID,
			chunks:    make(chan string, 16),
		},
	}, nil
}

// consume drains the upstream model stream, forwarding chunks and
// accumulating the full response, then finalizes the assistant row.
func (s *assistantService) consume(ctx context.Context, turn *turnState) {
	defer close(turn.messageStream.chunks)
	defer turn.upstream.Close()

	var accumulated strings.Builder
	for {
		chunk, err := turn.upstream.Recv()
		if err == io.EOF {
			s.finalize(turn, accumulated.String())
			return
		}
		if err != nil {
			s.abort(turn, accumulated.String(), err)
			return
		}

		accumulated.WriteString(chunk)
		metrics.StreamChunks.Inc()

		select {
		case turn.messageStream.chunks <- chunk:
		case <-ctx.Done():
			s.abort(turn, accumulated.String(), ctx.Err())
			return
		}
	}
}

func (s *assistantService) finalize(turn *turnState, raw string) {
	formatted := formatResponse(raw)
	if err := s.messageRepo.UpdateMessageContent(turn.placeholderID, formatted); err != nil {
		s.logger.Error("failed to finalize assistant message %d: %v", turn.placeholderID, err)
		turn.messageStream.setErr(err)
		metrics.MessagesProcessed.WithLabelValues("failed").Inc()
		return
	}

	metrics.MessagesProcessed.WithLabelValues("completed").Inc()
	s.logger.Info("assistant turn completed for conversation %d, %d bytes", turn.conversationID, len(raw))
}

// abort persists whatever arrived before the failure so the
// conversation record stays truthful about what the user saw.
func (s *assistantService) abort(turn *turnState, partial string, cause error) {
	s.logger.Error("assistant stream interrupted for conversation %d: %v", turn.conversationID, cause)

	content := partial
	if content != "" {
		content += "\n\n"
	}
	content += fmt.Sprintf("[Response interrupted: %v]", cause)

	if err := s.messageRepo.UpdateMessageContent(turn.placeholderID, content); err != nil {
		s.logger.Error("failed to persist interrupted response: %v", err)
	}

	turn.messageStream.setErr(cause)
	metrics.MessagesProcessed.WithLabelValues("interrupted").Inc()
}

// historyToChatMessages maps stored history into model input, dropping
// empty messages such as the still-blank placeholder.
func historyToChatMessages(history []*model.Message) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		messages = append(messages, llm.ChatMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return messages
}

// buildSystemPrompt renders the role preamble, the technical context
// block and the fenced relevant files.
func buildSystemPrompt(ctx model.ContextData) string {
	var b strings.Builder

	b.WriteString("You are a codebase-aware programming assistant. ")
	b.WriteString("Answer using the project context below when it is relevant.\n")
	b.WriteString("Structure every answer as six numbered sections:\n")
	b.WriteString("1. Understanding\n2. Approach\n3. Implementation\n4. Validation\n5. Considerations\n6. Conclusion\n")

	var tech []string
	if ctx.Topic != "" {
		tech = append(tech, "Topic: "+ctx.Topic)
	}
	if ctx.CodeContext != nil {
		if ctx.CodeContext.Language != "" {
			tech = append(tech, "Language: "+ctx.CodeContext.Language)
		}
		if len(ctx.CodeContext.Patterns) > 0 {
			tech = append(tech, "Known patterns: "+strings.Join(ctx.CodeContext.Patterns, ", "))
		}
		if ctx.CodeContext.ProjectContext != "" {
			tech = append(tech, "Project: "+ctx.CodeContext.ProjectContext)
		}
	}
	if len(ctx.References) > 0 {
		tech = append(tech, "References: "+strings.Join(ctx.References, ", "))
	}

	if len(tech) > 0 {
		b.WriteString("\nTechnical Context:\n")
		for _, line := range tech {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if ctx.CodeContext != nil {
		for _, file := range ctx.CodeContext.RelevantFiles {
			b.WriteString("\nFile: ")
			b.WriteString(file.Path)
			if file.Description != "" {
				b.WriteString(" - ")
				b.WriteString(file.Description)
			}
			b.WriteString("\n```\n")
			b.WriteString(file.Snippet)
			b.WriteString("\n```\n")
		}
	}

	return b.String()
}
