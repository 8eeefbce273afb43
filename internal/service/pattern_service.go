package service

import (
	"context"
	"math"
	"reflect"
	"sort"
	"sync"
	"time"

	"codechat/internal/config"
	"codechat/internal/errs"
	"codechat/internal/extractor"
	"codechat/internal/metrics"
	"codechat/internal/model"
	"codechat/internal/repository"
	"codechat/pkg/logger"
)

// SuggestionContext describes the work a client wants suggestions for.
type SuggestionContext struct {
	Context      string
	Language     string
	Code         string
	Dependencies []string
	Complexity   int
	Tags         []string
	ContextData  map[string]any
}

// RankedSuggestion pairs a persisted suggestion with its pattern.
type RankedSuggestion struct {
	Suggestion *model.PatternSuggestion
	Pattern    *model.CodePattern
}

// SuggestionFeedback is the one-shot outcome report for a suggestion.
type SuggestionFeedback struct {
	Accepted       bool
	Feedback       *int
	UserResponse   string
	ResponseTimeMs *int64
}

// PatternService detects, stores, ranks and adapts code patterns.
type PatternService interface {
	// AnalyzeCode detects patterns in code and upserts each occurrence
	AnalyzeCode(ctx context.Context, code, language string, patternContext map[string]any) ([]*model.CodePattern, error)
	// GenerateSuggestions ranks stored patterns against the given
	// context and persists the returned suggestions. Empty store means
	// empty result, not an error.
	GenerateSuggestions(ctx context.Context, sctx SuggestionContext) ([]*RankedSuggestion, error)
	// ProcessFeedback records suggestion feedback and shifts the
	// pattern's confidence accordingly
	ProcessFeedback(ctx context.Context, suggestionID int64, feedback SuggestionFeedback) error
	// GetPattern reads a pattern through the cache
	GetPattern(ctx context.Context, name, language string) (*model.CodePattern, error)
}

type patternService struct {
	patternRepo    repository.PatternRepository
	suggestionRepo repository.SuggestionRepository
	extractor      extractor.PatternExtractor
	scoring        *config.ConfigScoring
	logger         logger.Logger

	cacheMutex sync.RWMutex
	cache      map[string]*model.CodePattern
}

// NewPatternService creates a pattern service.
func NewPatternService(
	patternRepo repository.PatternRepository,
	suggestionRepo repository.SuggestionRepository,
	patternExtractor extractor.PatternExtractor,
	scoring *config.ConfigScoring,
	logger logger.Logger,
) PatternService {
	return &patternService{
		patternRepo:    patternRepo,
		suggestionRepo: suggestionRepo,
		extractor:      patternExtractor,
		scoring:        scoring,
		logger:         logger,
		cache:          make(map[string]*model.CodePattern),
	}
}

func (s *patternService) AnalyzeCode(ctx context.Context, code, language string, patternContext map[string]any) ([]*model.CodePattern, error) {
	result := s.extractor.Analyze(code, language)

	var stored []*model.CodePattern
	for _, detected := range result.Patterns {
		patternCtx := patternContext
		metadata := map[string]any{
			"detectorConfidence": detected.Confidence,
			"line":               detected.Line,
		}

		// An existing pattern keeps what it has learned: contexts and
		// metadata accumulate shallowly, new keys winning over old ones,
		// so re-detection never drops the accumulated feedback history.
		existing, err := s.patternRepo.GetPatternByNameAndLanguage(detected.Name, result.Language)
		if err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		if existing != nil {
			patternCtx = model.MergeShallow(existing.Context, patternContext)
			metadata = model.MergeShallow(existing.Metadata, metadata)
		}

		pattern := &model.CodePattern{
			Name:         detected.Name,
			Description:  detected.Description,
			Language:     result.Language,
			Example:      detected.Example,
			Tags:         detected.Tags,
			Context:      patternCtx,
			Complexity:   detected.Complexity,
			Dependencies: detected.Dependencies,
			Metadata:     metadata,
		}

		if err := s.patternRepo.UpsertPattern(pattern); err != nil {
			return nil, err
		}

		s.cacheSet(pattern)
		stored = append(stored, pattern)
	}

	s.logger.Info("analyzed %s code: %d patterns stored", result.Language, len(stored))
	return stored, nil
}

func (s *patternService) GenerateSuggestions(ctx context.Context, sctx SuggestionContext) ([]*RankedSuggestion, error) {
	lang := extractor.NormalizeLanguage(sctx.Language)

	var patterns []*model.CodePattern
	var err error
	if sctx.Language == "" {
		patterns, err = s.patternRepo.GetAllPatterns()
	} else {
		patterns, err = s.patternRepo.GetPatternsByLanguage(lang)
	}
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return []*RankedSuggestion{}, nil
	}

	type scored struct {
		pattern *model.CodePattern
		score   float64
	}
	ranked := make([]scored, 0, len(patterns))
	for _, p := range patterns {
		ranked = append(ranked, scored{pattern: p, score: s.relevanceScore(p, sctx)})
	}

	// Stable sort keeps the usage/confidence ordering from the store
	// for equal scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	limit := s.scoring.MaxSuggestions
	if limit > len(ranked) {
		limit = len(ranked)
	}

	suggestions := make([]*RankedSuggestion, 0, limit)
	for _, sc := range ranked[:limit] {
		suggestion := &model.PatternSuggestion{
			PatternID:      sc.pattern.ID,
			Context:        sctx.Context,
			Confidence:     suggestionConfidence(sc.score),
			RelevanceScore: sc.score,
			Metadata: map[string]any{
				"language": lang,
			},
		}
		if err := s.suggestionRepo.CreateSuggestion(suggestion); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, &RankedSuggestion{
			Suggestion: suggestion,
			Pattern:    sc.pattern,
		})
		metrics.SuggestionsGenerated.Inc()
	}

	s.logger.Info("generated %d suggestions for language %s", len(suggestions), lang)
	return suggestions, nil
}

func (s *patternService) ProcessFeedback(ctx context.Context, suggestionID int64, feedback SuggestionFeedback) error {
	suggestion, err := s.suggestionRepo.GetSuggestionByID(suggestionID)
	if err != nil {
		return err
	}

	if err := s.suggestionRepo.UpdateSuggestionFeedback(
		suggestionID, feedback.Accepted, feedback.Feedback,
		feedback.UserResponse, feedback.ResponseTimeMs,
	); err != nil {
		return err
	}

	delta := s.scoring.ConfidenceStep
	if !feedback.Accepted {
		delta = -delta
	}
	if err := s.patternRepo.AdjustConfidence(suggestion.PatternID, delta); err != nil {
		return err
	}

	pattern, err := s.patternRepo.GetPatternByID(suggestion.PatternID)
	if err != nil {
		return err
	}

	entry := map[string]any{
		"suggestionId": suggestionID,
		"accepted":     feedback.Accepted,
		"recordedAt":   time.Now().Format(time.RFC3339),
	}
	if feedback.Feedback != nil {
		entry["feedback"] = *feedback.Feedback
	}

	if pattern.Metadata == nil {
		pattern.Metadata = make(map[string]any)
	}
	history, _ := pattern.Metadata["feedbackHistory"].([]any)
	pattern.Metadata["feedbackHistory"] = append(history, entry)

	if err := s.patternRepo.UpdatePatternMetadata(pattern.ID, pattern.Metadata); err != nil {
		return err
	}

	s.cacheSet(pattern)
	s.logger.Info("feedback recorded for suggestion %d (accepted=%v), pattern %d confidence now %d",
		suggestionID, feedback.Accepted, pattern.ID, pattern.Confidence)
	return nil
}

func (s *patternService) GetPattern(ctx context.Context, name, language string) (*model.CodePattern, error) {
	key := extractor.NormalizeLanguage(language) + ":" + name

	s.cacheMutex.RLock()
	cached, ok := s.cache[key]
	s.cacheMutex.RUnlock()
	if ok {
		return cached, nil
	}

	pattern, err := s.patternRepo.GetPatternByNameAndLanguage(name, extractor.NormalizeLanguage(language))
	if err != nil {
		return nil, err
	}

	s.cacheSet(pattern)
	return pattern, nil
}

func (s *patternService) cacheSet(pattern *model.CodePattern) {
	s.cacheMutex.Lock()
	s.cache[pattern.CacheKey()] = pattern
	s.cacheMutex.Unlock()
}

// relevanceScore combines usage, confidence, context match and
// metadata match under the configured weights, clamped to [0,1].
func (s *patternService) relevanceScore(pattern *model.CodePattern, sctx SuggestionContext) float64 {
	usage := math.Min(float64(pattern.UsageCount)/100.0, 1.0)
	confidence := float64(pattern.Confidence) / 100.0

	score := s.scoring.UsageWeight*usage +
		s.scoring.ConfidenceWeight*confidence +
		s.scoring.ContextWeight*contextMatch(pattern.Context, sctx.ContextData) +
		s.scoring.MetadataWeight*metadataMatch(pattern, sctx)

	return clamp01(score)
}

// contextMatch is the fraction of pattern context keys whose values
// agree with the query context. Arrays agree when they share any
// element. An empty pattern context matches nothing.
func contextMatch(patternCtx, queryCtx map[string]any) float64 {
	if len(patternCtx) == 0 || len(queryCtx) == 0 {
		return 0
	}

	matched := 0
	for key, pv := range patternCtx {
		qv, ok := queryCtx[key]
		if !ok {
			continue
		}
		if valuesAgree(pv, qv) {
			matched++
		}
	}

	return float64(matched) / float64(len(patternCtx))
}

func valuesAgree(a, b any) bool {
	as, aIsSlice := a.([]any)
	bs, bIsSlice := b.([]any)
	if aIsSlice && bIsSlice {
		for _, av := range as {
			for _, bv := range bs {
				if reflect.DeepEqual(av, bv) {
					return true
				}
			}
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// metadataMatch blends dependency overlap, complexity proximity and
// tag overlap. A side missing any signal zeroes that term.
func metadataMatch(pattern *model.CodePattern, sctx SuggestionContext) float64 {
	score := 0.0

	if overlap := stringOverlap(pattern.Dependencies, sctx.Dependencies); overlap > 0 {
		score += 0.4 * overlap
	}

	if pattern.Complexity > 0 && sctx.Complexity > 0 {
		diff := math.Abs(float64(pattern.Complexity - sctx.Complexity))
		score += 0.3 * (1.0 - diff/10.0)
	}

	if overlap := stringOverlap(pattern.Tags, sctx.Tags); overlap > 0 {
		score += 0.3 * overlap
	}

	return clamp01(score)
}

// stringOverlap is |intersection| / max(len(a), len(b)), 0 when either
// side is empty.
func stringOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	common := 0
	for _, v := range b {
		if set[v] {
			common++
		}
	}

	max := len(a)
	if len(b) > max {
		max = len(b)
	}
	return float64(common) / float64(max)
}

func suggestionConfidence(score float64) int {
	confidence := int(math.Floor(score * 100))
	if confidence > 100 {
		confidence = 100
	}
	return confidence
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
