package model

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is one chat thread with its accumulated context.
type Conversation struct {
	ID        int64          `json:"id" db:"id"`
	Title     string         `json:"title" db:"title"`
	Topic     string         `json:"topic,omitempty" db:"topic"`
	Context   ContextData    `json:"context" db:"context"`
	Metadata  map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" db:"updated_at"`
}

// Message belongs to exactly one conversation. Content is mutable only
// while an assistant response is streaming into it; afterwards it is
// frozen.
type Message struct {
	ID              int64       `json:"id" db:"id"`
	ConversationID  int64       `json:"conversationId" db:"conversation_id"`
	Role            string      `json:"role" db:"role"`
	Content         string      `json:"content" db:"content"`
	ContextSnapshot ContextData `json:"contextSnapshot" db:"context_snapshot"`
	Feedback        *int        `json:"feedback,omitempty" db:"feedback"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
}

// ConversationTopic tracks how often a topic recurs across
// conversations, with the context accumulated for it.
type ConversationTopic struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	ContextData map[string]any `json:"contextData" db:"context_data"`
	UsageCount  int            `json:"usageCount" db:"usage_count"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
}
