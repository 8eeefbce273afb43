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

// MessageRepository is the message data access layer.
type MessageRepository interface {
	// CreateMessage inserts a message and assigns its ID
	CreateMessage(message *model.Message) error
	// GetMessageByID fetches one message
	GetMessageByID(id int64) (*model.Message, error)
	// GetMessagesByConversation lists a conversation's messages in
	// chronological order
	GetMessagesByConversation(conversationID int64) ([]*model.Message, error)
	// GetRecentMessages returns the last limit messages of a
	// conversation, oldest first
	GetRecentMessages(conversationID int64, limit int) ([]*model.Message, error)
	// UpdateMessageContent replaces the content of a message
	UpdateMessageContent(id int64, content string) error
	// UpdateMessageFeedback records a feedback rating on a message
	UpdateMessageFeedback(id int64, feedback int) error
}

type messageRepository struct {
	db     database.DatabaseManager
	logger logger.Logger
}

// NewMessageRepository creates a message repository.
func NewMessageRepository(db database.DatabaseManager, logger logger.Logger) MessageRepository {
	return &messageRepository{
		db:     db,
		logger: logger,
	}
}

func (r *messageRepository) CreateMessage(message *model.Message) error {
	snapshotJSON, err := encodeJSON(message.ContextSnapshot, "{}")
	if err != nil {
		return fmt.Errorf("failed to serialize context snapshot: %w", err)
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	// Appending a message is conversation activity, so the parent row's
	// updated_at moves with it. Both writes land or neither does.
	tx, err := r.db.BeginTransaction()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query := `
		INSERT INTO messages (conversation_id, role, content, context_snapshot, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := tx.Exec(query,
		message.ConversationID,
		message.Role,
		message.Content,
		snapshotJSON,
		message.Feedback,
		message.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create message: %v", err)
		return fmt.Errorf("failed to create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert ID: %v", err)
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	if _, err = tx.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		message.CreatedAt, message.ConversationID,
	); err != nil {
		r.logger.Error("failed to bump conversation %d activity: %v", message.ConversationID, err)
		return fmt.Errorf("failed to bump conversation activity: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}

	message.ID = id
	return nil
}

func (r *messageRepository) GetMessageByID(id int64) (*model.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, context_snapshot, feedback, created_at
		FROM messages
		WHERE id = ?
	`

	row := r.db.GetDB().QueryRow(query, id)

	message, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.NewRecordNotFoundErr("message", fmt.Sprintf("%d", id))
		}
		r.logger.Error("failed to get message by ID: %v", err)
		return nil, fmt.Errorf("failed to get message by ID: %w", err)
	}

	return message, nil
}

func (r *messageRepository) GetMessagesByConversation(conversationID int64) ([]*model.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, context_snapshot, feedback, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.GetDB().Query(query, conversationID)
	if err != nil {
		r.logger.Error("failed to get messages by conversation: %v", err)
		return nil, fmt.Errorf("failed to get messages by conversation: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (r *messageRepository) GetRecentMessages(conversationID int64, limit int) ([]*model.Message, error) {
	// Newest N selected by the inner query, then flipped back to
	// chronological order for prompt assembly.
	query := `
		SELECT id, conversation_id, role, content, context_snapshot, feedback, created_at
		FROM (
			SELECT id, conversation_id, role, content, context_snapshot, feedback, created_at
			FROM messages
			WHERE conversation_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`

	rows, err := r.db.GetDB().Query(query, conversationID, limit)
	if err != nil {
		r.logger.Error("failed to get recent messages: %v", err)
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (r *messageRepository) UpdateMessageContent(id int64, content string) error {
	query := `UPDATE messages SET content = ? WHERE id = ?`

	result, err := r.db.GetDB().Exec(query, content, id)
	if err != nil {
		r.logger.Error("failed to update message content: %v", err)
		return fmt.Errorf("failed to update message content: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NewRecordNotFoundErr("message", fmt.Sprintf("%d", id))
	}

	return nil
}

func (r *messageRepository) UpdateMessageFeedback(id int64, feedback int) error {
	query := `UPDATE messages SET feedback = ? WHERE id = ?`

	result, err := r.db.GetDB().Exec(query, feedback, id)
	if err != nil {
		r.logger.Error("failed to update message feedback: %v", err)
		return fmt.Errorf("failed to update message feedback: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NewRecordNotFoundErr("message", fmt.Sprintf("%d", id))
	}

	return nil
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var message model.Message
	var snapshotJSON string
	var createdAt time.Time

	err := row.Scan(
		&message.ID,
		&message.ConversationID,
		&message.Role,
		&message.Content,
		&snapshotJSON,
		&message.Feedback,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(snapshotJSON, &message.ContextSnapshot); err != nil {
		return nil, fmt.Errorf("failed to parse context snapshot: %w", err)
	}

	message.CreatedAt = createdAt
	return &message, nil
}

func collectMessages(rows *sql.Rows) ([]*model.Message, error) {
	var messages []*model.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
