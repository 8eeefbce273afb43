package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"codechat/internal/config"
	"codechat/pkg/logger"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
)

// DatabaseManager owns the SQLite connection pool and schema migration.
type DatabaseManager interface {
	Initialize() error
	Close() error
	GetDB() *sql.DB
	BeginTransaction() (*sql.Tx, error)
	// ClearTable deletes all rows of a known table and resets its
	// autoincrement counter. Test/maintenance helper.
	ClearTable(tableName string) error
}

// SQLiteManager is the SQLite implementation of DatabaseManager.
type SQLiteManager struct {
	db       *sql.DB
	config   *config.DatabaseConfig
	logger   logger.Logger
	mutex    sync.RWMutex
	migrator *Migrator
}

// NewSQLiteManager creates a SQLite database manager.
func NewSQLiteManager(config *config.DatabaseConfig, logger logger.Logger) DatabaseManager {
	return &SQLiteManager{
		config: config,
		logger: logger,
	}
}

// Initialize opens the database, configures the pool and runs pending
// migrations.
func (m *SQLiteManager) Initialize() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	dbPath := filepath.Join(m.config.DataDir, m.config.DatabaseName)

	if err := os.MkdirAll(m.config.DataDir, 0755); err != nil {
		return err
	}

	var opts []string
	if m.config.EnableForeignKeys {
		opts = append(opts, "_foreign_keys=on")
	}
	if m.config.EnableWAL {
		opts = append(opts, "_journal_mode=WAL")
	}
	dsn := dbPath
	if len(opts) > 0 {
		dsn += "?" + strings.Join(opts, "&")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(m.config.MaxOpenConns)
	db.SetMaxIdleConns(m.config.MaxIdleConns)
	db.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		return err
	}

	m.db = db

	m.migrator = NewMigrator(m.db, m.logger)
	if err := m.migrator.AutoMigrate(); err != nil {
		return err
	}

	m.logger.Info("database initialized successfully at %s", dbPath)
	return nil
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// GetDB returns the underlying connection pool.
func (m *SQLiteManager) GetDB() *sql.DB {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.db
}

// BeginTransaction starts a transaction.
func (m *SQLiteManager) BeginTransaction() (*sql.Tx, error) {
	return m.db.Begin()
}

// ClearTable deletes all rows of a known table and resets its ID.
func (m *SQLiteManager) ClearTable(tableName string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	validTables := map[string]bool{
		"conversations":       true,
		"messages":            true,
		"code_patterns":       true,
		"pattern_suggestions": true,
		"code_snippets":       true,
		"conversation_topics": true,
	}
	if !validTables[tableName] {
		return fmt.Errorf("invalid table name: %s", tableName)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(fmt.Sprintf("DELETE FROM %s", tableName)); err != nil {
		return fmt.Errorf("failed to clear table %s: %v", tableName, err)
	}
	if _, err = tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", tableName); err != nil {
		return fmt.Errorf("failed to reset autoincrement: %v", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	m.logger.Info("table %s cleared successfully", tableName)
	return nil
}
