package service

import (
	"context"
	"strings"

	"codechat/internal/config"
	"codechat/internal/model"
	"codechat/internal/repository"
	"codechat/pkg/logger"
)

// snippetPreviewLen caps the content carried into conversation context
// per relevant file.
const snippetPreviewLen = 500

// ConversationContext is the assembled state handed to the assistant
// before it builds a prompt.
type ConversationContext struct {
	ConversationID  int64             `json:"conversationId"`
	Context         model.ContextData `json:"context"`
	RelevantHistory []*model.Message  `json:"relevantHistory"`
}

// ContextService manages per-conversation context accumulation and
// codebase-aware enrichment.
type ContextService interface {
	// GetConversationContext returns a conversation's context plus its
	// recent history, lazily backfilling relevant code when a topic is
	// set but unresolved
	GetConversationContext(ctx context.Context, conversationID int64) (*ConversationContext, error)
	// UpdateContext merges a patch into stored context. A topic change
	// resolves relevant code into the patch first.
	UpdateContext(ctx context.Context, conversationID int64, patch model.ContextData) (model.ContextData, error)
	// FindRelevantCode searches indexed snippets for a topic, returning
	// files and the pattern names attached to them
	FindRelevantCode(ctx context.Context, topic, language string) ([]model.RelevantFile, []string, error)
}

type contextService struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	snippetRepo      repository.SnippetRepository
	topicRepo        repository.TopicRepository
	cfg              *config.ConfigContext
	logger           logger.Logger
}

// NewContextService creates a context service.
func NewContextService(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	snippetRepo repository.SnippetRepository,
	topicRepo repository.TopicRepository,
	cfg *config.ConfigContext,
	logger logger.Logger,
) ContextService {
	return &contextService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		snippetRepo:      snippetRepo,
		topicRepo:        topicRepo,
		cfg:              cfg,
		logger:           logger,
	}
}

func (s *contextService) GetConversationContext(ctx context.Context, conversationID int64) (*ConversationContext, error) {
	conversation, err := s.conversationRepo.GetConversationByID(conversationID)
	if err != nil {
		return nil, err
	}

	history, err := s.messageRepo.GetRecentMessages(conversationID, s.cfg.HistoryWindow)
	if err != nil {
		return nil, err
	}

	current := conversation.Context

	// A topic without resolved code means enrichment never ran for it,
	// typically after a context update that set the topic alone.
	if current.Topic != "" && !hasRelevantFiles(current.CodeContext) {
		language := ""
		if current.CodeContext != nil {
			language = current.CodeContext.Language
		}

		files, patterns, err := s.FindRelevantCode(ctx, current.Topic, language)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			codeCtx := &model.CodeContext{
				Language:      language,
				Patterns:      patterns,
				RelevantFiles: files,
			}
			if current.CodeContext != nil {
				codeCtx.ProjectContext = current.CodeContext.ProjectContext
				codeCtx.Patterns = mergeNames(current.CodeContext.Patterns, patterns)
			}

			current = current.Merge(model.ContextData{CodeContext: codeCtx})
			if err := s.conversationRepo.UpdateConversationContext(conversationID, current, current.Topic); err != nil {
				return nil, err
			}
		}
	}

	return &ConversationContext{
		ConversationID:  conversationID,
		Context:         current,
		RelevantHistory: history,
	}, nil
}

func (s *contextService) UpdateContext(ctx context.Context, conversationID int64, patch model.ContextData) (model.ContextData, error) {
	conversation, err := s.conversationRepo.GetConversationByID(conversationID)
	if err != nil {
		return model.ContextData{}, err
	}

	if patch.Topic != "" && patch.Topic != conversation.Context.Topic {
		language := ""
		if patch.CodeContext != nil {
			language = patch.CodeContext.Language
		} else if conversation.Context.CodeContext != nil {
			language = conversation.Context.CodeContext.Language
		}

		files, patterns, err := s.FindRelevantCode(ctx, patch.Topic, language)
		if err != nil {
			return model.ContextData{}, err
		}
		if len(files) > 0 || len(patterns) > 0 {
			if patch.CodeContext == nil {
				patch.CodeContext = &model.CodeContext{Language: language}
			}
			patch.CodeContext.RelevantFiles = files
			patch.CodeContext.Patterns = mergeNames(patch.CodeContext.Patterns, patterns)
		}

		s.trackTopic(patch, conversationID)
	}

	merged := conversation.Context.Merge(patch)

	if err := s.conversationRepo.UpdateConversationContext(conversationID, merged, merged.Topic); err != nil {
		return model.ContextData{}, err
	}

	s.logger.Debug("context updated for conversation %d, topic %q", conversationID, merged.Topic)
	return merged, nil
}

func (s *contextService) FindRelevantCode(ctx context.Context, topic, language string) ([]model.RelevantFile, []string, error) {
	terms := strings.Fields(topic)
	if len(terms) == 0 {
		return nil, nil, nil
	}

	snippets, err := s.snippetRepo.SearchSnippets(terms, language, s.cfg.RelevantCodeLimit)
	if err != nil {
		return nil, nil, err
	}

	var files []model.RelevantFile
	var patterns []string
	seen := make(map[string]bool)
	for _, snippet := range snippets {
		preview := snippet.Content
		if len(preview) > snippetPreviewLen {
			preview = preview[:snippetPreviewLen]
		}
		files = append(files, model.RelevantFile{
			Path:        snippet.FilePath,
			Snippet:     preview,
			Description: snippet.Description,
		})

		for _, name := range metadataPatterns(snippet.Metadata) {
			if !seen[name] {
				seen[name] = true
				patterns = append(patterns, name)
			}
		}
	}

	s.logger.Debug("relevant code for topic %q: %d files, %d patterns", topic, len(files), len(patterns))
	return files, patterns, nil
}

// trackTopic bumps the usage counter for a recurring topic.
func (s *contextService) trackTopic(patch model.ContextData, conversationID int64) {
	contextData := make(map[string]any, len(patch.Entities)+1)
	for k, v := range patch.Entities {
		contextData[k] = v
	}
	contextData["lastConversationId"] = conversationID

	topic := &model.ConversationTopic{
		Name:        patch.Topic,
		ContextData: contextData,
	}
	if err := s.topicRepo.UpsertTopic(topic); err != nil {
		// Topic stats are advisory, never fail the context update.
		s.logger.Warn("failed to track topic %q: %v", patch.Topic, err)
		return
	}

	s.logger.Debug("topic %q seen %d times", topic.Name, topic.UsageCount)
}

func hasRelevantFiles(codeCtx *model.CodeContext) bool {
	return codeCtx != nil && len(codeCtx.RelevantFiles) > 0
}

func mergeNames(existing, found []string) []string {
	seen := make(map[string]bool, len(existing)+len(found))
	var merged []string
	for _, name := range append(existing, found...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		merged = append(merged, name)
	}
	return merged
}

// metadataPatterns extracts the pattern name list an index run stored
// in snippet metadata.
func metadataPatterns(metadata map[string]any) []string {
	raw, ok := metadata["patterns"].([]any)
	if !ok {
		return nil
	}
	var names []string
	for _, v := range raw {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	return names
}
