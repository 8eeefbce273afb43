package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codechat/internal/errs"
	"codechat/internal/model"
)

func seedIndexedSnippets(t *testing.T, env *testEnv) {
	t.Helper()
	require.NoError(t, env.snippetRepo.CreateSnippets([]*model.CodeSnippet{
		{
			FilePath:    "src/models/invoice.js",
			Content:     "class Invoice { constructor(total) { this.total = total; } }",
			Language:    "javascript",
			Category:    model.CategoryModels,
			Description: "Invoice model",
			Metadata:    map[string]any{"patterns": []string{"class-definition"}},
		},
		{
			FilePath: "src/routes/invoice.js",
			Content:  "router.post('/invoices', createInvoice);",
			Language: "javascript",
			Category: model.CategoryRoutes,
			Metadata: map[string]any{"patterns": []string{"module-export"}},
		},
		{
			FilePath: "billing/charge.py",
			Content:  "def charge_invoice(invoice): ...",
			Language: "python",
			Category: model.CategoryServices,
		},
	}))
}

func TestContextServiceUpdateContext(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newContextService()
	ctx := context.Background()
	seedIndexedSnippets(t, env)

	conversation := &model.Conversation{Title: "billing work"}
	require.NoError(t, env.conversationRepo.CreateConversation(conversation))

	t.Run("TopicChangeEnriches", func(t *testing.T) {
		merged, err := svc.UpdateContext(ctx, conversation.ID, model.ContextData{
			Topic:    "invoice",
			Entities: map[string]any{"team": "payments"},
		})
		require.NoError(t, err)

		assert.Equal(t, "invoice", merged.Topic)
		require.NotNil(t, merged.CodeContext)
		assert.NotEmpty(t, merged.CodeContext.RelevantFiles)
		assert.Contains(t, merged.CodeContext.Patterns, "class-definition")
		assert.Contains(t, merged.CodeContext.Patterns, "module-export")

		// Enrichment is persisted, not just returned.
		stored, err := env.conversationRepo.GetConversationByID(conversation.ID)
		require.NoError(t, err)
		assert.Equal(t, "invoice", stored.Topic)
		assert.NotEmpty(t, stored.Context.CodeContext.RelevantFiles)

		// The topic counter advanced.
		topic, err := env.topicRepo.GetTopicByName("invoice")
		require.NoError(t, err)
		assert.Equal(t, 1, topic.UsageCount)
		assert.EqualValues(t, conversation.ID, topic.ContextData["lastConversationId"])
		assert.Equal(t, "payments", topic.ContextData["team"])
	})

	t.Run("SameTopicNoReenrichment", func(t *testing.T) {
		_, err := svc.UpdateContext(ctx, conversation.ID, model.ContextData{
			Topic:      "invoice",
			References: []string{"stripe-docs"},
		})
		require.NoError(t, err)

		topic, err := env.topicRepo.GetTopicByName("invoice")
		require.NoError(t, err)
		assert.Equal(t, 1, topic.UsageCount)
	})

	t.Run("PlainPatchMerges", func(t *testing.T) {
		merged, err := svc.UpdateContext(ctx, conversation.ID, model.ContextData{
			Metadata: map[string]any{"priority": "high"},
		})
		require.NoError(t, err)
		assert.Equal(t, "invoice", merged.Topic)
		assert.Equal(t, "high", merged.Metadata["priority"])
		assert.Equal(t, []string{"stripe-docs"}, merged.References)
	})

	t.Run("UnknownConversation", func(t *testing.T) {
		_, err := svc.UpdateContext(ctx, 99999, model.ContextData{Topic: "x"})
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestContextServiceGetConversationContext(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newContextService()
	ctx := context.Background()
	seedIndexedSnippets(t, env)

	t.Run("LazyBackfill", func(t *testing.T) {
		// Topic set directly on the row, enrichment never ran.
		conversation := &model.Conversation{
			Title:   "c",
			Context: model.ContextData{Topic: "invoice"},
		}
		require.NoError(t, env.conversationRepo.CreateConversation(conversation))

		got, err := svc.GetConversationContext(ctx, conversation.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Context.CodeContext)
		assert.NotEmpty(t, got.Context.CodeContext.RelevantFiles)

		stored, err := env.conversationRepo.GetConversationByID(conversation.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.Context.CodeContext.RelevantFiles)
	})

	t.Run("HistoryWindow", func(t *testing.T) {
		conversation := &model.Conversation{Title: "chatty"}
		require.NoError(t, env.conversationRepo.CreateConversation(conversation))
		for i := 0; i < 13; i++ {
			require.NoError(t, env.messageRepo.CreateMessage(&model.Message{
				ConversationID: conversation.ID,
				Role:           model.RoleUser,
				Content:        "m",
			}))
		}

		got, err := svc.GetConversationContext(ctx, conversation.ID)
		require.NoError(t, err)
		assert.Len(t, got.RelevantHistory, 10)
	})

	t.Run("UnknownConversation", func(t *testing.T) {
		_, err := svc.GetConversationContext(ctx, 99999)
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestContextServiceFindRelevantCode(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newContextService()
	ctx := context.Background()
	seedIndexedSnippets(t, env)

	t.Run("AllLanguages", func(t *testing.T) {
		files, patterns, err := svc.FindRelevantCode(ctx, "invoice", "")
		require.NoError(t, err)
		assert.Len(t, files, 3)
		assert.ElementsMatch(t, []string{"class-definition", "module-export"}, patterns)
	})

	t.Run("LanguageFilter", func(t *testing.T) {
		files, _, err := svc.FindRelevantCode(ctx, "invoice", "python")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "billing/charge.py", files[0].Path)
	})

	t.Run("PreviewTruncated", func(t *testing.T) {
		long := &model.CodeSnippet{
			FilePath: "src/huge.js",
			Content:  strings.Repeat("x", 2000),
			Language: "javascript",
			Category: model.CategoryGeneral,
		}
		require.NoError(t, env.snippetRepo.CreateSnippet(long))

		files, _, err := svc.FindRelevantCode(ctx, "huge", "")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Len(t, files[0].Snippet, 500)
	})

	t.Run("EmptyTopic", func(t *testing.T) {
		files, patterns, err := svc.FindRelevantCode(ctx, "   ", "")
		require.NoError(t, err)
		assert.Nil(t, files)
		assert.Nil(t, patterns)
	})
}

func TestChatService(t *testing.T) {
	env := newTestEnv(t)
	contextSvc := env.newContextService()
	svc := NewChatService(env.conversationRepo, env.messageRepo, contextSvc, env.logger)
	ctx := context.Background()
	seedIndexedSnippets(t, env)

	t.Run("CreateDefaultTitle", func(t *testing.T) {
		conversation, err := svc.CreateConversation(ctx, "", "", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "New conversation", conversation.Title)
	})

	t.Run("CreateWithTopicEnriches", func(t *testing.T) {
		conversation, err := svc.CreateConversation(ctx, "Invoices", "invoice", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "invoice", conversation.Context.Topic)
		require.NotNil(t, conversation.Context.CodeContext)
		assert.NotEmpty(t, conversation.Context.CodeContext.RelevantFiles)
	})

	t.Run("ListClampsLimit", func(t *testing.T) {
		conversations, err := svc.ListConversations(ctx, -5, -1)
		require.NoError(t, err)
		assert.NotEmpty(t, conversations)
	})

	t.Run("GetMessages", func(t *testing.T) {
		conversation, err := svc.CreateConversation(ctx, "History", "", nil, nil)
		require.NoError(t, err)
		require.NoError(t, env.messageRepo.CreateMessage(&model.Message{
			ConversationID: conversation.ID,
			Role:           model.RoleUser,
			Content:        "hi",
		}))

		messages, contextData, err := svc.GetConversationMessages(ctx, conversation.ID)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "hi", messages[0].Content)
		assert.Equal(t, "", contextData.Topic)
	})

	t.Run("GetMessagesUnknown", func(t *testing.T) {
		_, _, err := svc.GetConversationMessages(ctx, 99999)
		assert.True(t, errs.IsNotFound(err))
	})
}
