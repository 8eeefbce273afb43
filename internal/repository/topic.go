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

// TopicRepository tracks recurring conversation topics.
type TopicRepository interface {
	// UpsertTopic inserts a topic or bumps its usage count, refreshing
	// the accumulated context data. ID and UsageCount reflect the
	// stored row on return.
	UpsertTopic(topic *model.ConversationTopic) error
	// GetTopicByName fetches one topic
	GetTopicByName(name string) (*model.ConversationTopic, error)
	// GetTopTopics lists the most used topics
	GetTopTopics(limit int) ([]*model.ConversationTopic, error)
}

type topicRepository struct {
	db     database.DatabaseManager
	logger logger.Logger
}

// NewTopicRepository creates a topic repository.
func NewTopicRepository(db database.DatabaseManager, logger logger.Logger) TopicRepository {
	return &topicRepository{
		db:     db,
		logger: logger,
	}
}

func (r *topicRepository) UpsertTopic(topic *model.ConversationTopic) error {
	contextJSON, err := encodeJSON(topic.ContextData, "{}")
	if err != nil {
		return fmt.Errorf("failed to serialize topic context data: %w", err)
	}

	now := time.Now()

	query := `
		INSERT INTO conversation_topics (name, context_data, usage_count, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			context_data = excluded.context_data,
			usage_count = usage_count + 1,
			updated_at = excluded.updated_at
		RETURNING id, usage_count
	`

	row := r.db.GetDB().QueryRow(query, topic.Name, contextJSON, now, now)
	if err := row.Scan(&topic.ID, &topic.UsageCount); err != nil {
		r.logger.Error("failed to upsert topic %s: %v", topic.Name, err)
		return fmt.Errorf("failed to upsert topic: %w", err)
	}

	topic.UpdatedAt = now
	return nil
}

func (r *topicRepository) GetTopicByName(name string) (*model.ConversationTopic, error) {
	query := `
		SELECT id, name, context_data, usage_count, created_at, updated_at
		FROM conversation_topics
		WHERE name = ?
	`

	row := r.db.GetDB().QueryRow(query, name)

	topic, err := scanTopic(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.NewRecordNotFoundErr("topic", name)
		}
		r.logger.Error("failed to get topic by name: %v", err)
		return nil, fmt.Errorf("failed to get topic by name: %w", err)
	}

	return topic, nil
}

func (r *topicRepository) GetTopTopics(limit int) ([]*model.ConversationTopic, error) {
	query := `
		SELECT id, name, context_data, usage_count, created_at, updated_at
		FROM conversation_topics
		ORDER BY usage_count DESC, id ASC
		LIMIT ?
	`

	rows, err := r.db.GetDB().Query(query, limit)
	if err != nil {
		r.logger.Error("failed to get top topics: %v", err)
		return nil, fmt.Errorf("failed to get top topics: %w", err)
	}
	defer rows.Close()

	var topics []*model.ConversationTopic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			r.logger.Error("failed to scan topic row: %v", err)
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		topics = append(topics, topic)
	}

	return topics, rows.Err()
}

func scanTopic(row rowScanner) (*model.ConversationTopic, error) {
	var topic model.ConversationTopic
	var contextJSON string
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&topic.ID,
		&topic.Name,
		&contextJSON,
		&topic.UsageCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(contextJSON, &topic.ContextData); err != nil {
		return nil, fmt.Errorf("failed to parse topic context data: %w", err)
	}

	topic.CreatedAt = createdAt
	topic.UpdatedAt = updatedAt

	return &topic, nil
}
