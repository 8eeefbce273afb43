package repository

import (
	"testing"
	"time"

	"codechat/internal/config"
	"codechat/internal/database"
	"codechat/test/mocks"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) database.DatabaseManager {
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

	manager := database.NewSQLiteManager(dbConfig, &mocks.MockLogger{})
	require.NoError(t, manager.Initialize())
	t.Cleanup(func() { manager.Close() })
	return manager
}
