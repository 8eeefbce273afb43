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

// PatternRepository is the code pattern data access layer.
type PatternRepository interface {
	// UpsertPattern inserts a pattern or, when (name, language) already
	// exists, bumps its usage count and refreshes the stored fields.
	// The pattern's ID, UsageCount and Confidence reflect the stored
	// row on return.
	UpsertPattern(pattern *model.CodePattern) error
	// GetPatternByID fetches one pattern
	GetPatternByID(id int64) (*model.CodePattern, error)
	// GetPatternByNameAndLanguage fetches a pattern by its identity
	GetPatternByNameAndLanguage(name, language string) (*model.CodePattern, error)
	// GetPatternsByLanguage lists patterns for a language, most used first
	GetPatternsByLanguage(language string) ([]*model.CodePattern, error)
	// GetAllPatterns lists every stored pattern, most used first
	GetAllPatterns() ([]*model.CodePattern, error)
	// AdjustConfidence shifts a pattern's confidence by delta, clamped
	// to [0, 100] in SQL
	AdjustConfidence(id int64, delta int) error
	// UpdatePatternMetadata replaces a pattern's metadata
	UpdatePatternMetadata(id int64, metadata map[string]any) error
	// IncrementUsage bumps a pattern's usage count and last-used time
	IncrementUsage(id int64) error
}

type patternRepository struct {
	db     database.DatabaseManager
	logger logger.Logger
}

// NewPatternRepository creates a pattern repository.
func NewPatternRepository(db database.DatabaseManager, logger logger.Logger) PatternRepository {
	return &patternRepository{
		db:     db,
		logger: logger,
	}
}

func (r *patternRepository) UpsertPattern(pattern *model.CodePattern) error {
	tagsJSON, err := encodeJSON(pattern.Tags, "[]")
	if err != nil {
		return fmt.Errorf("failed to serialize pattern tags: %w", err)
	}
	contextJSON, err := encodeJSON(pattern.Context, "{}")
	if err != nil {
		return fmt.Errorf("failed to serialize pattern context: %w", err)
	}
	depsJSON, err := encodeJSON(pattern.Dependencies, "[]")
	if err != nil {
		return fmt.Errorf("failed to serialize pattern dependencies: %w", err)
	}
	metadataJSON, err := encodeJSON(pattern.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("failed to serialize pattern metadata: %w", err)
	}

	now := time.Now()

	// New rows start at usage_count 1. On conflict the count grows and
	// the descriptive fields are refreshed, while confidence keeps its
	// feedback-adjusted value.
	query := `
		INSERT INTO code_patterns
			(name, description, language, example, tags, context, usage_count,
			 confidence, complexity, dependencies, metadata, last_used, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name, language) DO UPDATE SET
			description = excluded.description,
			example = excluded.example,
			tags = excluded.tags,
			context = excluded.context,
			usage_count = usage_count + 1,
			complexity = excluded.complexity,
			dependencies = excluded.dependencies,
			metadata = excluded.metadata,
			last_used = excluded.last_used,
			updated_at = excluded.updated_at
		RETURNING id, usage_count, confidence
	`

	row := r.db.GetDB().QueryRow(query,
		pattern.Name,
		pattern.Description,
		pattern.Language,
		pattern.Example,
		tagsJSON,
		contextJSON,
		pattern.Confidence,
		pattern.Complexity,
		depsJSON,
		metadataJSON,
		now,
		now,
		now,
	)

	if err := row.Scan(&pattern.ID, &pattern.UsageCount, &pattern.Confidence); err != nil {
		r.logger.Error("failed to upsert pattern %s/%s: %v", pattern.Language, pattern.Name, err)
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}

	pattern.LastUsed = now
	pattern.UpdatedAt = now
	return nil
}

func (r *patternRepository) GetPatternByID(id int64) (*model.CodePattern, error) {
	query := patternSelect + ` WHERE id = ?`

	row := r.db.GetDB().QueryRow(query, id)

	pattern, err := scanPattern(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.NewRecordNotFoundErr("pattern", fmt.Sprintf("%d", id))
		}
		r.logger.Error("failed to get pattern by ID: %v", err)
		return nil, fmt.Errorf("failed to get pattern by ID: %w", err)
	}

	return pattern, nil
}

func (r *patternRepository) GetPatternByNameAndLanguage(name, language string) (*model.CodePattern, error) {
	query := patternSelect + ` WHERE name = ? AND language = ?`

	row := r.db.GetDB().QueryRow(query, name, language)

	pattern, err := scanPattern(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.NewRecordNotFoundErr("pattern", language+":"+name)
		}
		r.logger.Error("failed to get pattern by name and language: %v", err)
		return nil, fmt.Errorf("failed to get pattern by name and language: %w", err)
	}

	return pattern, nil
}

func (r *patternRepository) GetPatternsByLanguage(language string) ([]*model.CodePattern, error) {
	query := patternSelect + ` WHERE language = ? ORDER BY usage_count DESC, confidence DESC, id ASC`

	rows, err := r.db.GetDB().Query(query, language)
	if err != nil {
		r.logger.Error("failed to get patterns by language: %v", err)
		return nil, fmt.Errorf("failed to get patterns by language: %w", err)
	}
	defer rows.Close()

	return collectPatterns(rows)
}

func (r *patternRepository) GetAllPatterns() ([]*model.CodePattern, error) {
	query := patternSelect + ` ORDER BY usage_count DESC, confidence DESC, id ASC`

	rows, err := r.db.GetDB().Query(query)
	if err != nil {
		r.logger.Error("failed to get all patterns: %v", err)
		return nil, fmt.Errorf("failed to get all patterns: %w", err)
	}
	defer rows.Close()

	return collectPatterns(rows)
}

func (r *patternRepository) AdjustConfidence(id int64, delta int) error {
	query := `
		UPDATE code_patterns
		SET confidence = MAX(0, MIN(100, confidence + ?)), updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.GetDB().Exec(query, delta, time.Now(), id)
	if err != nil {
		r.logger.Error("failed to adjust pattern confidence: %v", err)
		return fmt.Errorf("failed to adjust pattern confidence: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NewRecordNotFoundErr("pattern", fmt.Sprintf("%d", id))
	}

	return nil
}

func (r *patternRepository) UpdatePatternMetadata(id int64, metadata map[string]any) error {
	metadataJSON, err := encodeJSON(metadata, "{}")
	if err != nil {
		return fmt.Errorf("failed to serialize pattern metadata: %w", err)
	}

	query := `UPDATE code_patterns SET metadata = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.GetDB().Exec(query, metadataJSON, time.Now(), id)
	if err != nil {
		r.logger.Error("failed to update pattern metadata: %v", err)
		return fmt.Errorf("failed to update pattern metadata: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NewRecordNotFoundErr("pattern", fmt.Sprintf("%d", id))
	}

	return nil
}

func (r *patternRepository) IncrementUsage(id int64) error {
	query := `
		UPDATE code_patterns
		SET usage_count = usage_count + 1, last_used = ?, updated_at = ?
		WHERE id = ?
	`

	now := time.Now()
	result, err := r.db.GetDB().Exec(query, now, now, id)
	if err != nil {
		r.logger.Error("failed to increment pattern usage: %v", err)
		return fmt.Errorf("failed to increment pattern usage: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NewRecordNotFoundErr("pattern", fmt.Sprintf("%d", id))
	}

	return nil
}

const patternSelect = `
	SELECT id, name, description, language, example, tags, context, usage_count,
		confidence, complexity, dependencies, metadata, last_used, created_at, updated_at
	FROM code_patterns`

func scanPattern(row rowScanner) (*model.CodePattern, error) {
	var pattern model.CodePattern
	var tagsJSON, contextJSON, depsJSON, metadataJSON string
	var lastUsed, createdAt, updatedAt time.Time

	err := row.Scan(
		&pattern.ID,
		&pattern.Name,
		&pattern.Description,
		&pattern.Language,
		&pattern.Example,
		&tagsJSON,
		&contextJSON,
		&pattern.UsageCount,
		&pattern.Confidence,
		&pattern.Complexity,
		&depsJSON,
		&metadataJSON,
		&lastUsed,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(tagsJSON, &pattern.Tags); err != nil {
		return nil, fmt.Errorf("failed to parse pattern tags: %w", err)
	}
	if err := decodeJSON(contextJSON, &pattern.Context); err != nil {
		return nil, fmt.Errorf("failed to parse pattern context: %w", err)
	}
	if err := decodeJSON(depsJSON, &pattern.Dependencies); err != nil {
		return nil, fmt.Errorf("failed to parse pattern dependencies: %w", err)
	}
	if err := decodeJSON(metadataJSON, &pattern.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse pattern metadata: %w", err)
	}

	pattern.LastUsed = lastUsed
	pattern.CreatedAt = createdAt
	pattern.UpdatedAt = updatedAt

	return &pattern, nil
}

func collectPatterns(rows *sql.Rows) ([]*model.CodePattern, error) {
	var patterns []*model.CodePattern
	for rows.Next() {
		pattern, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern row: %w", err)
		}
		patterns = append(patterns, pattern)
	}
	return patterns, rows.Err()
}
