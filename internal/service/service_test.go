package service

import (
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
	"github.com/stretchr/testify/require"

	"codechat/internal/config"
	"codechat/internal/database"
	"codechat/internal/repository"
	"codechat/test/mocks"
)

// testEnv wires real repositories over a temp SQLite database.
type testEnv struct {
	db               database.DatabaseManager
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	patternRepo      repository.PatternRepository
	suggestionRepo   repository.SuggestionRepository
	snippetRepo      repository.SnippetRepository
	topicRepo        repository.TopicRepository
	logger           *mocks.MockLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConfig := &config.DatabaseConfig{
		DataDir:           t.TempDir(),
		DatabaseName:      "test.db",
		MaxOpenConns:      5,
		MaxIdleConns:      3,
		ConnMaxLifetime:   15 * time.Minute,
		ConnMaxIdleTime:   3 * time.Minute,
		EnableWAL:         true,
		EnableForeignKeys: true,
	}

	logger := &mocks.MockLogger{}
	manager := database.NewSQLiteManager(dbConfig, logger)
	require.NoError(t, manager.Initialize())
	t.Cleanup(func() { manager.Close() })

	return &testEnv{
		db:               manager,
		conversationRepo: repository.NewConversationRepository(manager, logger),
		messageRepo:      repository.NewMessageRepository(manager, logger),
		patternRepo:      repository.NewPatternRepository(manager, logger),
		suggestionRepo:   repository.NewSuggestionRepository(manager, logger),
		snippetRepo:      repository.NewSnippetRepository(manager, logger),
		topicRepo:        repository.NewTopicRepository(manager, logger),
		logger:           logger,
	}
}

func (e *testEnv) newContextService() ContextService {
	cfg := config.DefaultConfigContext
	return NewContextService(e.conversationRepo, e.messageRepo, e.snippetRepo, e.topicRepo, &cfg, e.logger)
}
