package extractor

import (
	"strings"

	"codechat/pkg/logger"
)

// Confidence assigned to matches, scaled to [0,1]. Language-specific
// rules are trusted more than the generic fallback.
const (
	languageConfidence = 0.8
	genericConfidence  = 0.4
)

// PatternExtractor analyzes source content for recurring code patterns.
type PatternExtractor interface {
	// Analyze detects patterns and import dependencies in content.
	// Unknown languages fall back to the generic strategy.
	Analyze(content, language string) *Result
}

type patternExtractor struct {
	logger logger.Logger
}

// NewPatternExtractor creates a pattern extractor.
func NewPatternExtractor(logger logger.Logger) PatternExtractor {
	return &patternExtractor{
		logger: logger,
	}
}

func (e *patternExtractor) Analyze(content, language string) *Result {
	lang := NormalizeLanguage(language)

	var patterns []DetectedPattern
	switch lang {
	case "javascript", "typescript", "java", "c", "cpp", "csharp", "go", "rust", "php":
		patterns = detect(content, lang, clikeRules, languageConfidence)
	case "python":
		patterns = detect(content, lang, pythonRules, languageConfidence)
	default:
		patterns = detect(content, lang, genericRules, genericConfidence)
	}

	deps := ExtractDependencies(content, lang)
	for i := range patterns {
		patterns[i].Dependencies = deps
	}

	batchConfidence := genericConfidence
	if len(patterns) > 0 {
		batchConfidence = languageConfidence
	}

	e.logger.Debug("analyzed %s content: %d patterns, %d dependencies",
		lang, len(patterns), len(deps))

	return &Result{
		Language:     lang,
		Patterns:     patterns,
		Dependencies: deps,
		Confidence:   batchConfidence,
	}
}

// languageAliases maps common spellings and file extensions to
// canonical language names.
var languageAliases = map[string]string{
	"js":     "javascript",
	"jsx":    "javascript",
	"mjs":    "javascript",
	"node":   "javascript",
	"ts":     "typescript",
	"tsx":    "typescript",
	"py":     "python",
	"py3":    "python",
	"rb":     "ruby",
	"golang": "go",
	"c++":    "cpp",
	"cc":     "cpp",
	"h":      "c",
	"hpp":    "cpp",
	"cs":     "csharp",
	"rs":     "rust",
	"kt":     "kotlin",
	"sh":     "shell",
	"bash":   "shell",
	"yml":    "yaml",
	"md":     "markdown",
}

// NormalizeLanguage lowercases a language name and resolves common
// aliases. Empty input normalizes to "unknown".
func NormalizeLanguage(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		return "unknown"
	}
	if canonical, ok := languageAliases[lang]; ok {
		return canonical
	}
	return lang
}
