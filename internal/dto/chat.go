package dto

import "codechat/internal/model"

// CreateConversationReq creates a new conversation.
type CreateConversationReq struct {
	Title    string             `json:"title"`
	Topic    string             `json:"topic"`
	Context  *model.ContextData `json:"context"`
	Metadata map[string]any     `json:"metadata"`
}

// SendMessageReq posts a user message to a conversation. An optional
// context patch is merged before the assistant responds.
type SendMessageReq struct {
	Content string             `json:"content" binding:"required"`
	Context *model.ContextData `json:"context"`
}

// ConversationMessagesResp returns a conversation's history with its
// current context.
type ConversationMessagesResp struct {
	ConversationID int64             `json:"conversationId"`
	Messages       []*model.Message  `json:"messages"`
	Context        model.ContextData `json:"context"`
}

// UpdateContextReq patches conversation context.
type UpdateContextReq struct {
	Context model.ContextData `json:"context" binding:"required"`
}
