package service

import (
	"context"

	"codechat/internal/model"
	"codechat/internal/repository"
	"codechat/pkg/logger"
)

const defaultConversationTitle = "New conversation"

// ChatService covers conversation lifecycle outside the streaming
// turn: creation, listing and history reads.
type ChatService interface {
	// CreateConversation starts a conversation, optionally seeded with
	// a topic and initial context
	CreateConversation(ctx context.Context, title, topic string, initial *model.ContextData, metadata map[string]any) (*model.Conversation, error)
	// ListConversations lists conversations, most recently active first
	ListConversations(ctx context.Context, limit, offset int) ([]*model.Conversation, error)
	// GetConversationMessages returns a conversation's full history
	// with its current context
	GetConversationMessages(ctx context.Context, conversationID int64) ([]*model.Message, model.ContextData, error)
}

type chatService struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	contextSvc       ContextService
	logger           logger.Logger
}

// NewChatService creates a chat service.
func NewChatService(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	contextSvc ContextService,
	logger logger.Logger,
) ChatService {
	return &chatService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		contextSvc:       contextSvc,
		logger:           logger,
	}
}

func (s *chatService) CreateConversation(ctx context.Context, title, topic string, initial *model.ContextData, metadata map[string]any) (*model.Conversation, error) {
	if title == "" {
		title = defaultConversationTitle
	}

	conversation := &model.Conversation{
		Title:    title,
		Topic:    topic,
		Metadata: metadata,
	}
	if initial != nil {
		conversation.Context = *initial
	}
	if topic != "" && conversation.Context.Topic == "" {
		conversation.Context.Topic = topic
	}

	// The row is created with the topic not yet in its context, so the
	// follow-up update counts as a topic change and triggers enrichment.
	seeded := conversation.Context
	conversation.Context.Topic = ""

	if err := s.conversationRepo.CreateConversation(conversation); err != nil {
		return nil, err
	}
	conversation.Context = seeded

	if seeded.Topic != "" {
		merged, err := s.contextSvc.UpdateContext(ctx, conversation.ID, seeded)
		if err != nil {
			s.logger.Warn("failed to enrich initial context for conversation %d: %v", conversation.ID, err)
		} else {
			conversation.Context = merged
		}
	}

	s.logger.Info("conversation %d created: %q", conversation.ID, conversation.Title)
	return conversation, nil
}

func (s *chatService) ListConversations(ctx context.Context, limit, offset int) ([]*model.Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.conversationRepo.ListConversations(limit, offset)
}

func (s *chatService) GetConversationMessages(ctx context.Context, conversationID int64) ([]*model.Message, model.ContextData, error) {
	conversation, err := s.conversationRepo.GetConversationByID(conversationID)
	if err != nil {
		return nil, model.ContextData{}, err
	}

	messages, err := s.messageRepo.GetMessagesByConversation(conversationID)
	if err != nil {
		return nil, model.ContextData{}, err
	}

	return messages, conversation.Context, nil
}
