package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codechat/internal/config"
	"codechat/internal/errs"
	"codechat/internal/extractor"
	"codechat/internal/model"
)

func newPatternService(t *testing.T, env *testEnv) PatternService {
	t.Helper()
	scoring := config.DefaultConfigScoring
	scoring.ConfidenceStep = 5
	return NewPatternService(
		env.patternRepo,
		env.suggestionRepo,
		extractor.NewPatternExtractor(env.logger),
		&scoring,
		env.logger,
	)
}

const analyzedJS = `async function loadOrders(id) {
  try {
    const { rows } = await db.query('SELECT * FROM orders WHERE id = ?', [id]);
    return rows;
  } catch (err) {
    throw new Error('orders unavailable');
  }
}
`

func TestPatternServiceAnalyzeCode(t *testing.T) {
	env := newTestEnv(t)
	svc := newPatternService(t, env)
	ctx := context.Background()

	t.Run("StoresDetectedPatterns", func(t *testing.T) {
		patterns, err := svc.AnalyzeCode(ctx, analyzedJS, "javascript", map[string]any{"source": "orders.js"})
		require.NoError(t, err)
		require.NotEmpty(t, patterns)

		names := make(map[string]*model.CodePattern)
		for _, p := range patterns {
			names[p.Name] = p
		}
		require.Contains(t, names, "async-await")
		require.Contains(t, names, "error-handling")

		p := names["async-await"]
		assert.Equal(t, 1, p.UsageCount)
		assert.Equal(t, 0, p.Confidence)
		assert.Equal(t, "orders.js", p.Context["source"])
		assert.EqualValues(t, 1, p.Metadata["line"])
		assert.InDelta(t, 0.8, p.Metadata["detectorConfidence"].(float64), 0.001)
	})

	t.Run("ReanalysisAccumulatesContext", func(t *testing.T) {
		patterns, err := svc.AnalyzeCode(ctx, analyzedJS, "javascript", map[string]any{"project": "shop"})
		require.NoError(t, err)
		require.NotEmpty(t, patterns)

		for _, p := range patterns {
			assert.Equal(t, 2, p.UsageCount)
		}

		stored, err := env.patternRepo.GetPatternByNameAndLanguage("async-await", "javascript")
		require.NoError(t, err)
		assert.Equal(t, "orders.js", stored.Context["source"])
		assert.Equal(t, "shop", stored.Context["project"])
	})

	t.Run("NoPatternsNoError", func(t *testing.T) {
		patterns, err := svc.AnalyzeCode(ctx, "const x = 1;", "javascript", nil)
		require.NoError(t, err)
		assert.Empty(t, patterns)
	})
}

func TestPatternServiceGenerateSuggestions(t *testing.T) {
	env := newTestEnv(t)
	svc := newPatternService(t, env)
	ctx := context.Background()

	t.Run("EmptyStore", func(t *testing.T) {
		ranked, err := svc.GenerateSuggestions(ctx, SuggestionContext{Context: "anything", Language: "go"})
		require.NoError(t, err)
		assert.NotNil(t, ranked)
		assert.Empty(t, ranked)
	})

	// Seed seven patterns so the top-5 cut is visible.
	for i := 0; i < 7; i++ {
		pattern := &model.CodePattern{
			Name:     fmt.Sprintf("pattern-%d", i),
			Language: "javascript",
			Tags:     []string{"seed"},
		}
		require.NoError(t, env.patternRepo.UpsertPattern(pattern))
		for j := 0; j < i; j++ {
			require.NoError(t, env.patternRepo.IncrementUsage(pattern.ID))
		}
	}

	t.Run("TopFiveByScore", func(t *testing.T) {
		ranked, err := svc.GenerateSuggestions(ctx, SuggestionContext{
			Context:  "building an api client",
			Language: "javascript",
			Tags:     []string{"seed"},
		})
		require.NoError(t, err)
		require.Len(t, ranked, 5)

		// Scores descend, and the most used pattern leads.
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t,
				ranked[i-1].Suggestion.RelevanceScore,
				ranked[i].Suggestion.RelevanceScore)
		}
		assert.Equal(t, "pattern-6", ranked[0].Pattern.Name)
	})

	t.Run("SuggestionsPersisted", func(t *testing.T) {
		ranked, err := svc.GenerateSuggestions(ctx, SuggestionContext{
			Context:  "retry helper",
			Language: "javascript",
		})
		require.NoError(t, err)
		require.NotEmpty(t, ranked)

		first := ranked[0]
		assert.NotZero(t, first.Suggestion.ID)

		stored, err := env.suggestionRepo.GetSuggestionByID(first.Suggestion.ID)
		require.NoError(t, err)
		assert.Equal(t, "retry helper", stored.Context)
		assert.Equal(t, first.Pattern.ID, stored.PatternID)
		assert.Equal(t, suggestionConfidence(first.Suggestion.RelevanceScore), stored.Confidence)
	})

	t.Run("EmptyLanguageSearchesAllPatterns", func(t *testing.T) {
		pattern := &model.CodePattern{Name: "goroutine-pool", Language: "go"}
		require.NoError(t, env.patternRepo.UpsertPattern(pattern))

		ranked, err := svc.GenerateSuggestions(ctx, SuggestionContext{Context: "concurrency"})
		require.NoError(t, err)

		languages := make(map[string]bool)
		for _, r := range ranked {
			languages[r.Pattern.Language] = true
		}
		assert.True(t, languages["javascript"])
	})
}

func TestPatternServiceProcessFeedback(t *testing.T) {
	env := newTestEnv(t)
	svc := newPatternService(t, env)
	ctx := context.Background()

	pattern := &model.CodePattern{Name: "async-await", Language: "javascript"}
	require.NoError(t, env.patternRepo.UpsertPattern(pattern))
	require.NoError(t, env.patternRepo.AdjustConfidence(pattern.ID, 50))

	newSuggestion := func(t *testing.T) *model.PatternSuggestion {
		s := &model.PatternSuggestion{PatternID: pattern.ID, Context: "ctx"}
		require.NoError(t, env.suggestionRepo.CreateSuggestion(s))
		return s
	}

	t.Run("AcceptRaisesConfidence", func(t *testing.T) {
		suggestion := newSuggestion(t)
		rating := 5
		require.NoError(t, svc.ProcessFeedback(ctx, suggestion.ID, SuggestionFeedback{
			Accepted: true,
			Feedback: &rating,
		}))

		got, err := env.patternRepo.GetPatternByID(pattern.ID)
		require.NoError(t, err)
		assert.Equal(t, 55, got.Confidence)

		stored, err := env.suggestionRepo.GetSuggestionByID(suggestion.ID)
		require.NoError(t, err)
		assert.True(t, stored.Accepted)

		history, ok := got.Metadata["feedbackHistory"].([]any)
		require.True(t, ok)
		require.Len(t, history, 1)
		entry := history[0].(map[string]any)
		assert.Equal(t, true, entry["accepted"])
		assert.EqualValues(t, 5, entry["feedback"])
	})

	t.Run("RejectLowersConfidence", func(t *testing.T) {
		suggestion := newSuggestion(t)
		require.NoError(t, svc.ProcessFeedback(ctx, suggestion.ID, SuggestionFeedback{Accepted: false}))

		got, err := env.patternRepo.GetPatternByID(pattern.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, got.Confidence)

		history := got.Metadata["feedbackHistory"].([]any)
		assert.Len(t, history, 2)
	})

	t.Run("UnknownSuggestion", func(t *testing.T) {
		err := svc.ProcessFeedback(ctx, 99999, SuggestionFeedback{Accepted: true})
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestPatternServiceReanalysisKeepsFeedback(t *testing.T) {
	env := newTestEnv(t)
	svc := newPatternService(t, env)
	ctx := context.Background()

	_, err := svc.AnalyzeCode(ctx, analyzedJS, "javascript", nil)
	require.NoError(t, err)

	pattern, err := env.patternRepo.GetPatternByNameAndLanguage("async-await", "javascript")
	require.NoError(t, err)

	suggestion := &model.PatternSuggestion{PatternID: pattern.ID, Context: "ctx"}
	require.NoError(t, env.suggestionRepo.CreateSuggestion(suggestion))
	require.NoError(t, svc.ProcessFeedback(ctx, suggestion.ID, SuggestionFeedback{Accepted: true}))

	// Seeing the same code again must not wipe what feedback taught.
	_, err = svc.AnalyzeCode(ctx, analyzedJS, "javascript", nil)
	require.NoError(t, err)

	stored, err := env.patternRepo.GetPatternByNameAndLanguage("async-await", "javascript")
	require.NoError(t, err)

	history, ok := stored.Metadata["feedbackHistory"].([]any)
	require.True(t, ok)
	assert.Len(t, history, 1)
	assert.InDelta(t, 0.8, stored.Metadata["detectorConfidence"].(float64), 0.001)
}

func TestPatternServiceGetPattern(t *testing.T) {
	env := newTestEnv(t)
	svc := newPatternService(t, env)
	ctx := context.Background()

	pattern := &model.CodePattern{Name: "decorator", Language: "python"}
	require.NoError(t, env.patternRepo.UpsertPattern(pattern))

	t.Run("ReadThrough", func(t *testing.T) {
		got, err := svc.GetPattern(ctx, "decorator", "python")
		require.NoError(t, err)
		assert.Equal(t, pattern.ID, got.ID)

		// Second read hits the cache; same result either way.
		again, err := svc.GetPattern(ctx, "decorator", "py")
		require.NoError(t, err)
		assert.Equal(t, pattern.ID, again.ID)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := svc.GetPattern(ctx, "nope", "python")
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestScoringHelpers(t *testing.T) {
	t.Run("ContextMatch", func(t *testing.T) {
		patternCtx := map[string]any{
			"framework": "express",
			"runtime":   "node",
			"tags":      []any{"http", "rest"},
		}

		assert.InDelta(t, 0.0, contextMatch(nil, map[string]any{"a": 1}), 0.001)
		assert.InDelta(t, 0.0, contextMatch(patternCtx, nil), 0.001)

		full := contextMatch(patternCtx, map[string]any{
			"framework": "express",
			"runtime":   "node",
			"tags":      []any{"rest"},
		})
		assert.InDelta(t, 1.0, full, 0.001)

		partial := contextMatch(patternCtx, map[string]any{
			"framework": "express",
			"runtime":   "deno",
			"tags":      []any{"grpc"},
		})
		assert.InDelta(t, 1.0/3.0, partial, 0.001)
	})

	t.Run("StringOverlap", func(t *testing.T) {
		assert.InDelta(t, 0.0, stringOverlap(nil, []string{"a"}), 0.001)
		assert.InDelta(t, 1.0, stringOverlap([]string{"a"}, []string{"a"}), 0.001)
		assert.InDelta(t, 0.5, stringOverlap([]string{"a", "b"}, []string{"a"}), 0.001)
		assert.InDelta(t, 0.25, stringOverlap([]string{"a"}, []string{"a", "b", "c", "d"}), 0.001)
	})

	t.Run("MetadataMatch", func(t *testing.T) {
		pattern := &model.CodePattern{
			Dependencies: []string{"express"},
			Complexity:   4,
			Tags:         []string{"async"},
		}
		full := metadataMatch(pattern, SuggestionContext{
			Dependencies: []string{"express"},
			Complexity:   4,
			Tags:         []string{"async"},
		})
		assert.InDelta(t, 1.0, full, 0.001)

		none := metadataMatch(&model.CodePattern{}, SuggestionContext{})
		assert.InDelta(t, 0.0, none, 0.001)
	})

	t.Run("SuggestionConfidence", func(t *testing.T) {
		assert.Equal(t, 0, suggestionConfidence(0))
		assert.Equal(t, 72, suggestionConfidence(0.725))
		assert.Equal(t, 100, suggestionConfidence(1.0))
	})

	t.Run("Clamp01", func(t *testing.T) {
		assert.Equal(t, 0.0, clamp01(-0.5))
		assert.Equal(t, 0.4, clamp01(0.4))
		assert.Equal(t, 1.0, clamp01(1.5))
	})
}
