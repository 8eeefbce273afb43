package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"codechat/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one schema change, identified by a timestamp version.
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// Migrator applies embedded SQL migrations in version order.
type Migrator struct {
	db     *sql.DB
	logger logger.Logger
}

// NewMigrator creates a migrator.
func NewMigrator(db *sql.DB, logger logger.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// CreateMigrationTable creates the migration bookkeeping table.
func (m *Migrator) CreateMigrationTable() error {
	sql := `
		CREATE TABLE IF NOT EXISTS migrations (
			version VARCHAR(255) PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := m.db.Exec(sql); err != nil {
		return fmt.Errorf("failed to create migrations table: %v", err)
	}

	return nil
}

// GetAppliedMigrations returns the versions already applied.
func (m *Migrator) GetAppliedMigrations() (map[string]bool, error) {
	rows, err := m.db.Query("SELECT version FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %v", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %v", err)
		}
		applied[version] = true
	}

	return applied, nil
}

// GetAvailableMigrations reads the embedded migration files. File name
// format: 20250601100000_create_conversations_table.sql — a 14-digit
// timestamp version, an action (create/update/delete), then the target.
func (m *Migrator) GetAvailableMigrations() ([]Migration, error) {
	files, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %v", err)
	}

	var migrations []Migration
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		name := file.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		baseName := strings.TrimSuffix(name, ".sql")
		parts := strings.Split(baseName, "_")
		if len(parts) < 4 {
			continue
		}

		version := parts[0]
		if len(version) != 14 {
			continue
		}

		action := parts[1]
		if action != "create" && action != "update" && action != "delete" {
			continue
		}

		content, err := fs.ReadFile(migrationFS, fmt.Sprintf("migrations/%s", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded migration file %s: %v", name, err)
		}

		migrations = append(migrations, Migration{
			Version:     version,
			Description: baseName,
			SQL:         string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// ApplyMigration applies a single migration in a transaction.
func (m *Migrator) ApplyMigration(migration Migration) error {
	m.logger.Info("applying migration %s", migration.Description)

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(migration.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %v", err)
	}

	_, err = tx.Exec(
		"INSERT INTO migrations (version, description, applied_at) VALUES (?, ?, ?)",
		migration.Version, migration.Description, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record migration version: %v", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// AutoMigrate applies every migration that has not been applied yet.
func (m *Migrator) AutoMigrate() error {
	if err := m.CreateMigrationTable(); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return err
	}

	available, err := m.GetAvailableMigrations()
	if err != nil {
		return err
	}

	for _, migration := range available {
		if !applied[migration.Version] {
			if err := m.ApplyMigration(migration); err != nil {
				return fmt.Errorf("failed to apply migration %s: %v", migration.Version, err)
			}
		}
	}

	m.logger.Info("auto migration completed successfully")
	return nil
}
