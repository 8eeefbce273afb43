package config

import (
	"time"
)

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	DataDir           string        `toml:"dataDir"`
	DatabaseName      string        `toml:"databaseName"`
	MaxOpenConns      int           `toml:"maxOpenConns"`
	MaxIdleConns      int           `toml:"maxIdleConns"`
	ConnMaxLifetime   time.Duration `toml:"connMaxLifetime"`
	ConnMaxIdleTime   time.Duration `toml:"connMaxIdleTime"`
	EnableWAL         bool          `toml:"enableWAL"`
	EnableForeignKeys bool          `toml:"enableForeignKeys"`
}

// DefaultDatabaseConfig returns the default database configuration.
func DefaultDatabaseConfig(dataDir string) *DatabaseConfig {
	return &DatabaseConfig{
		DataDir:           dataDir,
		DatabaseName:      "codechat.db",
		MaxOpenConns:      5,
		MaxIdleConns:      3,
		ConnMaxLifetime:   15 * time.Minute,
		ConnMaxIdleTime:   3 * time.Minute,
		EnableWAL:         true,
		EnableForeignKeys: true,
	}
}
