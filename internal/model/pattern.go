package model

import "time"

// CodePattern is a named, reusable code shape detected in analyzed
// source. Identity is (Name, Language). Confidence stays in [0,100] and
// UsageCount never decreases; both are enforced at the SQL level.
type CodePattern struct {
	ID           int64          `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Description  string         `json:"description" db:"description"`
	Language     string         `json:"language" db:"language"`
	Example      string         `json:"example" db:"example"`
	Tags         []string       `json:"tags" db:"tags"`
	Context      map[string]any `json:"context" db:"context"`
	UsageCount   int            `json:"usageCount" db:"usage_count"`
	Confidence   int            `json:"confidence" db:"confidence"`
	Complexity   int            `json:"complexity" db:"complexity"`
	Dependencies []string       `json:"dependencies" db:"dependencies"`
	Metadata     map[string]any `json:"metadata" db:"metadata"`
	LastUsed     time.Time      `json:"lastUsed" db:"last_used"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// CacheKey is the read-through cache key for a pattern.
func (p *CodePattern) CacheKey() string {
	return p.Language + ":" + p.Name
}

// PatternSuggestion records one ranked suggestion handed to a client.
// It is mutated exactly once, when feedback arrives.
type PatternSuggestion struct {
	ID             int64          `json:"id" db:"id"`
	PatternID      int64          `json:"patternId" db:"pattern_id"`
	Context        string         `json:"context" db:"context"`
	Confidence     int            `json:"confidence" db:"confidence"`
	RelevanceScore float64        `json:"relevanceScore" db:"relevance_score"`
	Accepted       bool           `json:"accepted" db:"accepted"`
	Feedback       *int           `json:"feedback,omitempty" db:"feedback"`
	UserResponse   string         `json:"userResponse,omitempty" db:"user_response"`
	ResponseTimeMs *int64         `json:"responseTimeMs,omitempty" db:"response_time_ms"`
	Metadata       map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}

// Snippet categories, in relevance-priority order for code search.
const (
	CategoryRoutes        = "routes"
	CategoryModels        = "models"
	CategoryServices      = "services"
	CategoryViews         = "views"
	CategoryUtilities     = "utilities"
	CategoryTests         = "tests"
	CategoryDocumentation = "documentation"
	CategoryGeneral       = "general"
)

// CodeSnippet is a persisted fragment of indexed source. Reindexing
// inserts new rows rather than updating in place.
type CodeSnippet struct {
	ID          int64          `json:"id" db:"id"`
	FilePath    string         `json:"filePath" db:"file_path"`
	Content     string         `json:"content" db:"content"`
	Language    string         `json:"language" db:"language"`
	Category    string         `json:"category" db:"category"`
	Description string         `json:"description,omitempty" db:"description"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
}
