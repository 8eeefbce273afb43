package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"codechat/internal/database"
	"codechat/internal/model"
	"codechat/pkg/logger"
)

// SnippetRepository is the indexed code snippet data access layer.
type SnippetRepository interface {
	// CreateSnippet inserts one snippet and assigns its ID
	CreateSnippet(snippet *model.CodeSnippet) error
	// CreateSnippets inserts a batch of snippets in one transaction
	CreateSnippets(snippets []*model.CodeSnippet) error
	// SearchSnippets finds snippets matching any of the terms,
	// case-insensitively, over path, content, description and metadata,
	// optionally restricted to one language. Results come back in
	// category priority order.
	SearchSnippets(terms []string, language string, limit int) ([]*model.CodeSnippet, error)
	// GetSnippetsByCategory lists snippets of one category, newest first
	GetSnippetsByCategory(category string, limit int) ([]*model.CodeSnippet, error)
	// CountSnippets returns the number of stored snippets
	CountSnippets() (int64, error)
}

type snippetRepository struct {
	db     database.DatabaseManager
	logger logger.Logger
}

// NewSnippetRepository creates a snippet repository.
func NewSnippetRepository(db database.DatabaseManager, logger logger.Logger) SnippetRepository {
	return &snippetRepository{
		db:     db,
		logger: logger,
	}
}

const snippetInsert = `
	INSERT INTO code_snippets (file_path, content, language, category, description, metadata, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (r *snippetRepository) CreateSnippet(snippet *model.CodeSnippet) error {
	metadataJSON, err := encodeJSON(snippet.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("failed to serialize snippet metadata: %w", err)
	}

	if snippet.CreatedAt.IsZero() {
		snippet.CreatedAt = time.Now()
	}

	result, err := r.db.GetDB().Exec(snippetInsert,
		snippet.FilePath,
		snippet.Content,
		snippet.Language,
		snippet.Category,
		snippet.Description,
		metadataJSON,
		snippet.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create snippet: %v", err)
		return fmt.Errorf("failed to create snippet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert ID: %v", err)
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	snippet.ID = id
	return nil
}

func (r *snippetRepository) CreateSnippets(snippets []*model.CodeSnippet) error {
	if len(snippets) == 0 {
		return nil
	}

	tx, err := r.db.BeginTransaction()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(snippetInsert)
	if err != nil {
		return fmt.Errorf("failed to prepare snippet insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, snippet := range snippets {
		var metadataJSON string
		metadataJSON, err = encodeJSON(snippet.Metadata, "{}")
		if err != nil {
			return fmt.Errorf("failed to serialize snippet metadata: %w", err)
		}
		if snippet.CreatedAt.IsZero() {
			snippet.CreatedAt = now
		}

		var result sql.Result
		result, err = stmt.Exec(
			snippet.FilePath,
			snippet.Content,
			snippet.Language,
			snippet.Category,
			snippet.Description,
			metadataJSON,
			snippet.CreatedAt,
		)
		if err != nil {
			r.logger.Error("failed to insert snippet %s: %v", snippet.FilePath, err)
			return fmt.Errorf("failed to insert snippet: %w", err)
		}

		snippet.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snippet batch: %w", err)
	}

	return nil
}

func (r *snippetRepository) SearchSnippets(terms []string, language string, limit int) ([]*model.CodeSnippet, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	var clauses []string
	var args []any
	for _, term := range terms {
		pattern := "%" + strings.ToLower(term) + "%"
		clauses = append(clauses,
			"(LOWER(file_path) LIKE ? OR LOWER(content) LIKE ? OR LOWER(description) LIKE ? OR LOWER(metadata) LIKE ?)")
		args = append(args, pattern, pattern, pattern, pattern)
	}

	// The language predicate belongs in the query: filtering after the
	// LIMIT would let other-language rows crowd out matches.
	languageClause := ""
	if language != "" {
		languageClause = "AND language = ?"
		args = append(args, language)
	}

	query := fmt.Sprintf(`
		SELECT id, file_path, content, language, category, description, metadata, created_at
		FROM code_snippets
		WHERE (%s) %s
		ORDER BY CASE category
			WHEN 'models' THEN 0
			WHEN 'routes' THEN 1
			WHEN 'services' THEN 2
			WHEN 'utilities' THEN 3
			ELSE 4
		END, id DESC
		LIMIT ?
	`, strings.Join(clauses, " OR "), languageClause)
	args = append(args, limit)

	rows, err := r.db.GetDB().Query(query, args...)
	if err != nil {
		r.logger.Error("failed to search snippets: %v", err)
		return nil, fmt.Errorf("failed to search snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

func (r *snippetRepository) GetSnippetsByCategory(category string, limit int) ([]*model.CodeSnippet, error) {
	query := `
		SELECT id, file_path, content, language, category, description, metadata, created_at
		FROM code_snippets
		WHERE category = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.GetDB().Query(query, category, limit)
	if err != nil {
		r.logger.Error("failed to get snippets by category: %v", err)
		return nil, fmt.Errorf("failed to get snippets by category: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

func (r *snippetRepository) CountSnippets() (int64, error) {
	var count int64
	err := r.db.GetDB().QueryRow("SELECT COUNT(*) FROM code_snippets").Scan(&count)
	if err != nil {
		r.logger.Error("failed to count snippets: %v", err)
		return 0, fmt.Errorf("failed to count snippets: %w", err)
	}
	return count, nil
}

func scanSnippet(row rowScanner) (*model.CodeSnippet, error) {
	var snippet model.CodeSnippet
	var metadataJSON string
	var createdAt time.Time

	err := row.Scan(
		&snippet.ID,
		&snippet.FilePath,
		&snippet.Content,
		&snippet.Language,
		&snippet.Category,
		&snippet.Description,
		&metadataJSON,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(metadataJSON, &snippet.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse snippet metadata: %w", err)
	}

	snippet.CreatedAt = createdAt
	return &snippet, nil
}

func collectSnippets(rows *sql.Rows) ([]*model.CodeSnippet, error) {
	var snippets []*model.CodeSnippet
	for rows.Next() {
		snippet, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snippet row: %w", err)
		}
		snippets = append(snippets, snippet)
	}
	return snippets, rows.Err()
}
