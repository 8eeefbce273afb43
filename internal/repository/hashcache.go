package repository

import (
	"fmt"
	"os"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"codechat/pkg/logger"
)

// FileHashCache remembers the content hash of every indexed file so
// reindex runs can skip files that have not changed.
type FileHashCache interface {
	// Get returns the cached hash for a path, ok false when absent
	Get(path string) (hash string, ok bool, err error)
	// Put stores the hash for a path
	Put(path, hash string) error
	// Delete forgets a path
	Delete(path string) error
	// Close releases the underlying store
	Close() error
}

// levelDBHashCache implements FileHashCache on LevelDB.
type levelDBHashCache struct {
	db     *leveldb.DB
	logger logger.Logger
}

// NewFileHashCache opens (or creates) the hash cache at dbPath. A
// corrupted store is removed and recreated rather than failing startup.
func NewFileHashCache(dbPath string, logger logger.Logger) (FileHashCache, error) {
	db, err := openHashDB(dbPath)
	if err != nil {
		logger.Warn("hash cache open failed, recreating. path %s err:%v", dbPath, err)
		if removeErr := os.RemoveAll(dbPath); removeErr != nil {
			return nil, fmt.Errorf("failed to remove corrupted hash cache %s: %w", dbPath, removeErr)
		}
		db, err = openHashDB(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to recreate hash cache %s: %w", dbPath, err)
		}
	}

	logger.Info("file hash cache opened at %s", dbPath)
	return &levelDBHashCache{
		db:     db,
		logger: logger,
	}, nil
}

func openHashDB(dbPath string) (*leveldb.DB, error) {
	dbOptions := &opt.Options{
		WriteBuffer:        4 * 1024 * 1024,
		BlockCacheCapacity: 8 * 1024 * 1024,
	}
	return leveldb.OpenFile(dbPath, dbOptions)
}

func (c *levelDBHashCache) Get(path string) (string, bool, error) {
	value, err := c.db.Get([]byte(path), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read hash cache: %w", err)
	}
	return string(value), true, nil
}

func (c *levelDBHashCache) Put(path, hash string) error {
	if err := c.db.Put([]byte(path), []byte(hash), nil); err != nil {
		return fmt.Errorf("failed to write hash cache: %w", err)
	}
	return nil
}

func (c *levelDBHashCache) Delete(path string) error {
	if err := c.db.Delete([]byte(path), nil); err != nil {
		return fmt.Errorf("failed to delete hash cache entry: %w", err)
	}
	return nil
}

func (c *levelDBHashCache) Close() error {
	return c.db.Close()
}
