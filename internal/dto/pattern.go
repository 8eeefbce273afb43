package dto

// SuggestPatternsReq asks for pattern suggestions relevant to a piece
// of work in progress.
type SuggestPatternsReq struct {
	Context      string         `json:"context" binding:"required"`
	Language     string         `json:"language"`
	Code         string         `json:"code"`
	Dependencies []string       `json:"dependencies"`
	Complexity   int            `json:"complexity"`
	Tags         []string       `json:"tags"`
	ContextData  map[string]any `json:"contextData"`
}

// PatternSuggestionItem is one ranked suggestion returned to a client.
type PatternSuggestionItem struct {
	SuggestionID   int64    `json:"suggestionId"`
	PatternID      int64    `json:"patternId"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Language       string   `json:"language"`
	Example        string   `json:"example"`
	Tags           []string `json:"tags"`
	Confidence     int      `json:"confidence"`
	RelevanceScore float64  `json:"relevanceScore"`
}

// PatternUsageReq records feedback on a previously issued suggestion.
type PatternUsageReq struct {
	SuggestionID   int64  `json:"suggestionId" binding:"required"`
	Accepted       bool   `json:"accepted"`
	Feedback       *int   `json:"feedback"`
	UserResponse   string `json:"userResponse"`
	ResponseTimeMs *int64 `json:"responseTimeMs"`
}

// AnalyzeCodeReq submits source for pattern detection and storage.
type AnalyzeCodeReq struct {
	Code     string         `json:"code" binding:"required"`
	Language string         `json:"language"`
	Context  map[string]any `json:"context"`
}

// IndexReq triggers an index run over a directory tree.
type IndexReq struct {
	RootDir string `json:"rootDir" binding:"required"`
}
