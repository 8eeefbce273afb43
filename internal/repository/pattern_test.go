package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codechat/internal/errs"
	"codechat/internal/model"
	"codechat/test/mocks"
)

func TestPatternRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatternRepository(db, &mocks.MockLogger{})

	t.Run("InsertDefaults", func(t *testing.T) {
		pattern := &model.CodePattern{
			Name:         "async-await",
			Description:  "Asynchronous function using async/await",
			Language:     "javascript",
			Example:      "async function f() { await g(); }",
			Tags:         []string{"async"},
			Context:      map[string]any{"source": "api/users.js"},
			Complexity:   2,
			Dependencies: []string{"express"},
		}
		require.NoError(t, repo.UpsertPattern(pattern))
		assert.NotZero(t, pattern.ID)
		assert.Equal(t, 1, pattern.UsageCount)
		assert.Equal(t, 0, pattern.Confidence)
	})

	t.Run("UpsertBumpsUsage", func(t *testing.T) {
		pattern := &model.CodePattern{
			Name:        "async-await",
			Description: "updated description",
			Language:    "javascript",
			Example:     "async () => {}",
		}
		require.NoError(t, repo.UpsertPattern(pattern))
		assert.Equal(t, 2, pattern.UsageCount)

		got, err := repo.GetPatternByNameAndLanguage("async-await", "javascript")
		require.NoError(t, err)
		assert.Equal(t, "updated description", got.Description)
		assert.Equal(t, 2, got.UsageCount)
	})

	t.Run("SameNameOtherLanguageIsDistinct", func(t *testing.T) {
		pattern := &model.CodePattern{
			Name:     "async-await",
			Language: "python",
			Example:  "async def f(): ...",
		}
		require.NoError(t, repo.UpsertPattern(pattern))
		assert.Equal(t, 1, pattern.UsageCount)
	})

	t.Run("UpsertPreservesConfidence", func(t *testing.T) {
		pattern := &model.CodePattern{Name: "error-handling", Language: "javascript"}
		require.NoError(t, repo.UpsertPattern(pattern))
		require.NoError(t, repo.AdjustConfidence(pattern.ID, 30))

		again := &model.CodePattern{Name: "error-handling", Language: "javascript"}
		require.NoError(t, repo.UpsertPattern(again))
		assert.Equal(t, pattern.ID, again.ID)
		assert.Equal(t, 30, again.Confidence)
	})

	t.Run("AdjustConfidenceClamps", func(t *testing.T) {
		pattern := &model.CodePattern{Name: "clamped", Language: "go"}
		require.NoError(t, repo.UpsertPattern(pattern))

		require.NoError(t, repo.AdjustConfidence(pattern.ID, -10))
		got, err := repo.GetPatternByID(pattern.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Confidence)

		require.NoError(t, repo.AdjustConfidence(pattern.ID, 250))
		got, err = repo.GetPatternByID(pattern.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, got.Confidence)
	})

	t.Run("ListOrdering", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewPatternRepository(db, &mocks.MockLogger{})

		a := &model.CodePattern{Name: "a", Language: "go"}
		b := &model.CodePattern{Name: "b", Language: "go"}
		c := &model.CodePattern{Name: "c", Language: "go"}
		for _, p := range []*model.CodePattern{a, b, c} {
			require.NoError(t, repo.UpsertPattern(p))
		}
		// b used twice, c more confident than a.
		require.NoError(t, repo.UpsertPattern(&model.CodePattern{Name: "b", Language: "go"}))
		require.NoError(t, repo.AdjustConfidence(c.ID, 50))

		patterns, err := repo.GetPatternsByLanguage("go")
		require.NoError(t, err)
		require.Len(t, patterns, 3)
		assert.Equal(t, "b", patterns[0].Name)
		assert.Equal(t, "c", patterns[1].Name)
		assert.Equal(t, "a", patterns[2].Name)
	})

	t.Run("UpdateMetadata", func(t *testing.T) {
		pattern := &model.CodePattern{Name: "meta", Language: "go"}
		require.NoError(t, repo.UpsertPattern(pattern))
		require.NoError(t, repo.UpdatePatternMetadata(pattern.ID, map[string]any{"line": 12}))

		got, err := repo.GetPatternByID(pattern.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 12, got.Metadata["line"])
	})

	t.Run("IncrementUsage", func(t *testing.T) {
		pattern := &model.CodePattern{Name: "used", Language: "go"}
		require.NoError(t, repo.UpsertPattern(pattern))
		require.NoError(t, repo.IncrementUsage(pattern.ID))

		got, err := repo.GetPatternByID(pattern.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.UsageCount)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetPatternByID(99999)
		assert.True(t, errs.IsNotFound(err))
		_, err = repo.GetPatternByNameAndLanguage("nope", "go")
		assert.True(t, errs.IsNotFound(err))
		assert.True(t, errs.IsNotFound(repo.AdjustConfidence(99999, 1)))
	})
}

func TestSuggestionRepository(t *testing.T) {
	db := newTestDB(t)
	patternRepo := NewPatternRepository(db, &mocks.MockLogger{})
	repo := NewSuggestionRepository(db, &mocks.MockLogger{})

	pattern := &model.CodePattern{Name: "async-await", Language: "javascript"}
	require.NoError(t, patternRepo.UpsertPattern(pattern))

	t.Run("CreateAndGet", func(t *testing.T) {
		suggestion := &model.PatternSuggestion{
			PatternID:      pattern.ID,
			Context:        "building a fetch helper",
			Confidence:     72,
			RelevanceScore: 0.72,
		}
		require.NoError(t, repo.CreateSuggestion(suggestion))
		assert.NotZero(t, suggestion.ID)

		got, err := repo.GetSuggestionByID(suggestion.ID)
		require.NoError(t, err)
		assert.Equal(t, pattern.ID, got.PatternID)
		assert.Equal(t, 72, got.Confidence)
		assert.InDelta(t, 0.72, got.RelevanceScore, 0.0001)
		assert.False(t, got.Accepted)
		assert.Nil(t, got.Feedback)
	})

	t.Run("Feedback", func(t *testing.T) {
		suggestion := &model.PatternSuggestion{PatternID: pattern.ID, Context: "ctx"}
		require.NoError(t, repo.CreateSuggestion(suggestion))

		rating := 5
		elapsed := int64(1800)
		require.NoError(t, repo.UpdateSuggestionFeedback(suggestion.ID, true, &rating, "used it", &elapsed))

		got, err := repo.GetSuggestionByID(suggestion.ID)
		require.NoError(t, err)
		assert.True(t, got.Accepted)
		require.NotNil(t, got.Feedback)
		assert.Equal(t, 5, *got.Feedback)
		assert.Equal(t, "used it", got.UserResponse)
		require.NotNil(t, got.ResponseTimeMs)
		assert.Equal(t, int64(1800), *got.ResponseTimeMs)
	})

	t.Run("ListByPattern", func(t *testing.T) {
		suggestions, err := repo.GetSuggestionsByPattern(pattern.ID, 10)
		require.NoError(t, err)
		require.NotEmpty(t, suggestions)
		// Newest first.
		for i := 1; i < len(suggestions); i++ {
			assert.Greater(t, suggestions[i-1].ID, suggestions[i].ID)
		}
	})

	t.Run("FeedbackMissing", func(t *testing.T) {
		err := repo.UpdateSuggestionFeedback(99999, true, nil, "", nil)
		assert.True(t, errs.IsNotFound(err))
	})
}
