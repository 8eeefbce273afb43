package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codechat/internal/errs"
	"codechat/internal/model"
	"codechat/test/mocks"
)

func seedSnippets(t *testing.T, repo SnippetRepository) {
	t.Helper()
	snippets := []*model.CodeSnippet{
		{
			FilePath: "src/utils/format.js",
			Content:  "export function formatUser(user) { return user.name; }",
			Language: "javascript",
			Category: model.CategoryUtilities,
		},
		{
			FilePath:    "src/models/user.js",
			Content:     "class User { constructor(name) { this.name = name; } }",
			Language:    "javascript",
			Category:    model.CategoryModels,
			Description: "User model",
		},
		{
			FilePath: "src/routes/user.js",
			Content:  "router.get('/users', listUsers);",
			Language: "javascript",
			Category: model.CategoryRoutes,
		},
		{
			FilePath: "src/services/billing.py",
			Content:  "def charge(user, amount): ...",
			Language: "python",
			Category: model.CategoryServices,
			Metadata: map[string]any{"patterns": []string{"function-definition"}},
		},
	}
	require.NoError(t, repo.CreateSnippets(snippets))
	for _, s := range snippets {
		assert.NotZero(t, s.ID)
	}
}

func TestSnippetRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnippetRepository(db, &mocks.MockLogger{})
	seedSnippets(t, repo)

	t.Run("Count", func(t *testing.T) {
		count, err := repo.CountSnippets()
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})

	t.Run("SearchCategoryPriority", func(t *testing.T) {
		// "user" hits the utility, model and route files; models rank
		// above routes, routes above utilities.
		results, err := repo.SearchSnippets([]string{"user"}, "", 10)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(results), 3)
		assert.Equal(t, model.CategoryModels, results[0].Category)
		assert.Equal(t, model.CategoryRoutes, results[1].Category)
	})

	t.Run("SearchCaseInsensitive", func(t *testing.T) {
		results, err := repo.SearchSnippets([]string{"USER"}, "", 10)
		require.NoError(t, err)
		assert.NotEmpty(t, results)
	})

	t.Run("SearchAnyTermMatches", func(t *testing.T) {
		results, err := repo.SearchSnippets([]string{"zzz-no-hit", "billing"}, "", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "src/services/billing.py", results[0].FilePath)
	})

	t.Run("SearchMatchesMetadata", func(t *testing.T) {
		results, err := repo.SearchSnippets([]string{"function-definition"}, "", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "src/services/billing.py", results[0].FilePath)
	})

	t.Run("SearchLanguageFilter", func(t *testing.T) {
		results, err := repo.SearchSnippets([]string{"user"}, "python", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "src/services/billing.py", results[0].FilePath)
	})

	t.Run("SearchLanguageNotCrowdedOut", func(t *testing.T) {
		// More matching rows than the limit in another language must not
		// push out the requested language.
		for i := 0; i < 12; i++ {
			require.NoError(t, repo.CreateSnippet(&model.CodeSnippet{
				FilePath: fmt.Sprintf("src/transaction%d.js", i),
				Content:  "class Transaction {}",
				Language: "javascript",
				Category: model.CategoryGeneral,
			}))
		}
		require.NoError(t, repo.CreateSnippet(&model.CodeSnippet{
			FilePath: "ledger/transaction.py",
			Content:  "def transaction(entry): ...",
			Language: "python",
			Category: model.CategoryServices,
		}))

		results, err := repo.SearchSnippets([]string{"transaction"}, "python", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "ledger/transaction.py", results[0].FilePath)
	})

	t.Run("SearchLimit", func(t *testing.T) {
		results, err := repo.SearchSnippets([]string{"user"}, "", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("SearchNoTerms", func(t *testing.T) {
		results, err := repo.SearchSnippets(nil, "", 10)
		require.NoError(t, err)
		assert.Nil(t, results)
	})

	t.Run("ByCategory", func(t *testing.T) {
		results, err := repo.GetSnippetsByCategory(model.CategoryModels, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "src/models/user.js", results[0].FilePath)
	})
}

func TestTopicRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewTopicRepository(db, &mocks.MockLogger{})

	t.Run("UpsertAndBump", func(t *testing.T) {
		topic := &model.ConversationTopic{
			Name:        "authentication",
			ContextData: map[string]any{"lastConversationId": 1},
		}
		require.NoError(t, repo.UpsertTopic(topic))
		assert.NotZero(t, topic.ID)
		assert.Equal(t, 1, topic.UsageCount)

		again := &model.ConversationTopic{
			Name:        "authentication",
			ContextData: map[string]any{"lastConversationId": 7},
		}
		require.NoError(t, repo.UpsertTopic(again))
		assert.Equal(t, topic.ID, again.ID)
		assert.Equal(t, 2, again.UsageCount)

		got, err := repo.GetTopicByName("authentication")
		require.NoError(t, err)
		assert.EqualValues(t, 7, got.ContextData["lastConversationId"])
	})

	t.Run("TopTopics", func(t *testing.T) {
		require.NoError(t, repo.UpsertTopic(&model.ConversationTopic{Name: "billing"}))
		require.NoError(t, repo.UpsertTopic(&model.ConversationTopic{Name: "authentication"}))

		topics, err := repo.GetTopTopics(10)
		require.NoError(t, err)
		require.Len(t, topics, 2)
		assert.Equal(t, "authentication", topics[0].Name)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := repo.GetTopicByName("nope")
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestFileHashCache(t *testing.T) {
	cache, err := NewFileHashCache(t.TempDir()+"/hashes", &mocks.MockLogger{})
	require.NoError(t, err)
	defer cache.Close()

	t.Run("MissingKey", func(t *testing.T) {
		_, ok, err := cache.Get("never/seen.go")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("PutGet", func(t *testing.T) {
		require.NoError(t, cache.Put("src/app.js", "abc123"))
		hash, ok, err := cache.Get("src/app.js")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "abc123", hash)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Put("src/app.js", "def456"))
		hash, _, err := cache.Get("src/app.js")
		require.NoError(t, err)
		assert.Equal(t, "def456", hash)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Delete("src/app.js"))
		_, ok, err := cache.Get("src/app.js")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
