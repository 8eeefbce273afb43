package repository

import (
	"database/sql"
	"fmt"
	"time"

	"codechat/internal/database"
	"codechat/internal/errs"
	"codechat/internal/model"
	"codechat/pkg/logger"
)

// ConversationRepository is the conversation data access layer.
type ConversationRepository interface {
	// CreateConversation inserts a conversation and assigns its ID
	CreateConversation(conversation *model.Conversation) error
	// GetConversationByID fetches one conversation
	GetConversationByID(id int64) (*model.Conversation, error)
	// ListConversations lists conversations, most recently updated first
	ListConversations(limit, offset int) ([]*model.Conversation, error)
	// UpdateConversationContext replaces the stored context and topic
	UpdateConversationContext(id int64, context model.ContextData, topic string) error
	// UpdateConversationTitle replaces the title
	UpdateConversationTitle(id int64, title string) error
	// DeleteConversation removes a conversation and, via FK cascade, its messages
	DeleteConversation(id int64) error
}

type conversationRepository struct {
	db     database.DatabaseManager
	logger logger.Logger
}

// NewConversationRepository creates a conversation repository.
func NewConversationRepository(db database.DatabaseManager, logger logger.Logger) ConversationRepository {
	return &conversationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *conversationRepository) CreateConversation(conversation *model.Conversation) error {
	contextJSON, err := encodeJSON(conversation.Context, "{}")
	if err != nil {
		return fmt.Errorf("failed to serialize conversation context: %w", err)
	}
	metadataJSON, err := encodeJSON(conversation.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("failed to serialize conversation metadata: %w", err)
	}

	now := time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = now
	}
	conversation.UpdatedAt = now

	query := `
		INSERT INTO conversations (title, topic, context, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.GetDB().Exec(query,
		conversation.Title,
		conversation.Topic,
		contextJSON,
		metadataJSON,
		conversation.CreatedAt,
		conversation.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create conversation: %v", err)
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert ID: %v", err)
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	conversation.ID = id
	return nil
}

func (r *conversationRepository) GetConversationByID(id int64) (*model.Conversation, error) {
	query := `
		SELECT id, title, topic, context, metadata, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`

	row := r.db.GetDB().QueryRow(query, id)

	conversation, err := scanConversation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.NewRecordNotFoundErr("conversation", fmt.Sprintf("%d", id))
		}
		r.logger.Error("failed to get conversation by ID: %v", err)
		return nil, fmt.Errorf("failed to get conversation by ID: %w", err)
	}

	return conversation, nil
}

func (r *conversationRepository) ListConversations(limit, offset int) ([]*model.Conversation, error) {
	query := `
		SELECT id, title, topic, context, metadata, created_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.GetDB().Query(query, limit, offset)
	if err != nil {
		r.logger.Error("failed to list conversations: %v", err)
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*model.Conversation
	for rows.Next() {
		conversation, err := scanConversation(rows)
		if err != nil {
			r.logger.Error("failed to scan conversation row: %v", err)
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		conversations = append(conversations, conversation)
	}

	return conversations, rows.Err()
}

func (r *conversationRepository) UpdateConversationContext(id int64, context model.ContextData, topic string) error {
	contextJSON, err := encodeJSON(context, "{}")
	if err != nil {
		return fmt.Errorf("failed to serialize conversation context: %w", err)
	}

	query := `
		UPDATE conversations
		SET context = ?, topic = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.GetDB().Exec(query, contextJSON, topic, time.Now(), id)
	if err != nil {
		r.logger.Error("failed to update conversation context: %v", err)
		return fmt.Errorf("failed to update conversation context: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NewRecordNotFoundErr("conversation", fmt.Sprintf("%d", id))
	}

	return nil
}

func (r *conversationRepository) UpdateConversationTitle(id int64, title string) error {
	query := `
		UPDATE conversations
		SET title = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.GetDB().Exec(query, title, time.Now(), id)
	if err != nil {
		r.logger.Error("failed to update conversation title: %v", err)
		return fmt.Errorf("failed to update conversation title: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NewRecordNotFoundErr("conversation", fmt.Sprintf("%d", id))
	}

	return nil
}

func (r *conversationRepository) DeleteConversation(id int64) error {
	query := `DELETE FROM conversations WHERE id = ?`

	result, err := r.db.GetDB().Exec(query, id)
	if err != nil {
		r.logger.Error("failed to delete conversation: %v", err)
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NewRecordNotFoundErr("conversation", fmt.Sprintf("%d", id))
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*model.Conversation, error) {
	var conversation model.Conversation
	var contextJSON, metadataJSON string
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&conversation.ID,
		&conversation.Title,
		&conversation.Topic,
		&contextJSON,
		&metadataJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(contextJSON, &conversation.Context); err != nil {
		return nil, fmt.Errorf("failed to parse conversation context: %w", err)
	}
	if err := decodeJSON(metadataJSON, &conversation.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse conversation metadata: %w", err)
	}

	conversation.CreatedAt = createdAt
	conversation.UpdatedAt = updatedAt

	return &conversation, nil
}
