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

// SuggestionRepository is the pattern suggestion data access layer.
type SuggestionRepository interface {
	// CreateSuggestion inserts a suggestion and assigns its ID
	CreateSuggestion(suggestion *model.PatternSuggestion) error
	// GetSuggestionByID fetches one suggestion
	GetSuggestionByID(id int64) (*model.PatternSuggestion, error)
	// GetSuggestionsByPattern lists a pattern's suggestions, newest first
	GetSuggestionsByPattern(patternID int64, limit int) ([]*model.PatternSuggestion, error)
	// UpdateSuggestionFeedback records the one-shot feedback on a
	// suggestion
	UpdateSuggestionFeedback(id int64, accepted bool, feedback *int, userResponse string, responseTimeMs *int64) error
}

type suggestionRepository struct {
	db     database.DatabaseManager
	logger logger.Logger
}

// NewSuggestionRepository creates a suggestion repository.
func NewSuggestionRepository(db database.DatabaseManager, logger logger.Logger) SuggestionRepository {
	return &suggestionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *suggestionRepository) CreateSuggestion(suggestion *model.PatternSuggestion) error {
	metadataJSON, err := encodeJSON(suggestion.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("failed to serialize suggestion metadata: %w", err)
	}

	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO pattern_suggestions
			(pattern_id, context, confidence, relevance_score, accepted, feedback,
			 user_response, response_time_ms, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.GetDB().Exec(query,
		suggestion.PatternID,
		suggestion.Context,
		suggestion.Confidence,
		suggestion.RelevanceScore,
		suggestion.Accepted,
		suggestion.Feedback,
		suggestion.UserResponse,
		suggestion.ResponseTimeMs,
		metadataJSON,
		suggestion.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create suggestion: %v", err)
		return fmt.Errorf("failed to create suggestion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert ID: %v", err)
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	suggestion.ID = id
	return nil
}

func (r *suggestionRepository) GetSuggestionByID(id int64) (*model.PatternSuggestion, error) {
	query := suggestionSelect + ` WHERE id = ?`

	row := r.db.GetDB().QueryRow(query, id)

	suggestion, err := scanSuggestion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.NewRecordNotFoundErr("suggestion", fmt.Sprintf("%d", id))
		}
		r.logger.Error("failed to get suggestion by ID: %v", err)
		return nil, fmt.Errorf("failed to get suggestion by ID: %w", err)
	}

	return suggestion, nil
}

func (r *suggestionRepository) GetSuggestionsByPattern(patternID int64, limit int) ([]*model.PatternSuggestion, error) {
	query := suggestionSelect + ` WHERE pattern_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.db.GetDB().Query(query, patternID, limit)
	if err != nil {
		r.logger.Error("failed to get suggestions by pattern: %v", err)
		return nil, fmt.Errorf("failed to get suggestions by pattern: %w", err)
	}
	defer rows.Close()

	var suggestions []*model.PatternSuggestion
	for rows.Next() {
		suggestion, err := scanSuggestion(rows)
		if err != nil {
			r.logger.Error("failed to scan suggestion row: %v", err)
			return nil, fmt.Errorf("failed to scan suggestion row: %w", err)
		}
		suggestions = append(suggestions, suggestion)
	}

	return suggestions, rows.Err()
}

func (r *suggestionRepository) UpdateSuggestionFeedback(id int64, accepted bool, feedback *int, userResponse string, responseTimeMs *int64) error {
	query := `
		UPDATE pattern_suggestions
		SET accepted = ?, feedback = ?, user_response = ?, response_time_ms = ?
		WHERE id = ?
	`

	result, err := r.db.GetDB().Exec(query, accepted, feedback, userResponse, responseTimeMs, id)
	if err != nil {
		r.logger.Error("failed to update suggestion feedback: %v", err)
		return fmt.Errorf("failed to update suggestion feedback: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NewRecordNotFoundErr("suggestion", fmt.Sprintf("%d", id))
	}

	return nil
}

const suggestionSelect = `
	SELECT id, pattern_id, context, confidence, relevance_score, accepted,
		feedback, user_response, response_time_ms, metadata, created_at
	FROM pattern_suggestions`

func scanSuggestion(row rowScanner) (*model.PatternSuggestion, error) {
	var suggestion model.PatternSuggestion
	var metadataJSON string
	var createdAt time.Time

	err := row.Scan(
		&suggestion.ID,
		&suggestion.PatternID,
		&suggestion.Context,
		&suggestion.Confidence,
		&suggestion.RelevanceScore,
		&suggestion.Accepted,
		&suggestion.Feedback,
		&suggestion.UserResponse,
		&suggestion.ResponseTimeMs,
		&metadataJSON,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(metadataJSON, &suggestion.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion metadata: %w", err)
	}

	suggestion.CreatedAt = createdAt
	return &suggestion, nil
}
