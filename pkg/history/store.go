package history

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultLoadLimit caps how many persisted commands a store loads on
// startup.
const DefaultLoadLimit = 1000

// Store persists executed commands across sessions. Load returns prior
// commands oldest first.
type Store interface {
	Load() ([]string, error)
	Append(command string) error
	Close() error
}

// CommandEntry is one persisted console command.
type CommandEntry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`

	Command string
}

// SQLiteStore keeps command history in a SQLite database file.
type SQLiteStore struct {
	db     *gorm.DB
	logger *zap.Logger
	limit  int
}

// NewSQLiteStore opens (creating if needed) the history database at
// dbFilePath. A nil logger disables store logging.
func NewSQLiteStore(dbFilePath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// PRAGMA settings tuned for a small single-writer database that
	// may live on a network filesystem:
	// - foreign_keys(1): Enable foreign key constraints (disabled by default)
	// - busy_timeout(5000): 5 second timeout for network latency
	// - synchronous(1): NORMAL mode for durability/performance balance
	// - cache_size(-20000): 20MB cache to reduce I/O operations
	// - temp_store(2): MEMORY - keeps temp files off the filesystem
	connectionString := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(1)&_pragma=cache_size(-20000)&_pragma=temp_store(2)", dbFilePath)

	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if err := db.AutoMigrate(&CommandEntry{}); err != nil {
		return nil, fmt.Errorf("migrating history database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// SQLite serializes writes anyway, so multiple connections add overhead
	sqlDB.SetMaxOpenConns(1)
	// Minimal pooling for file-based DB
	sqlDB.SetMaxIdleConns(1)
	// Reasonable connection lifetime
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &SQLiteStore{
		db:     db,
		logger: logger,
		limit:  DefaultLoadLimit,
	}, nil
}

// SetLoadLimit bounds how many commands Load returns. Non-positive
// limits restore the default.
func (store *SQLiteStore) SetLoadLimit(limit int) {
	if limit <= 0 {
		limit = DefaultLoadLimit
	}
	store.limit = limit
}

// Load returns the most recent persisted commands, oldest first.
func (store *SQLiteStore) Load() ([]string, error) {
	var entries []CommandEntry
	result := store.db.Order("created_at desc, id desc").Limit(store.limit).Find(&entries)
	if result.Error != nil {
		store.logger.Warn("loading command history", zap.Error(result.Error))
		return nil, result.Error
	}

	lo.Reverse(entries)
	commands := make([]string, len(entries))
	for i, entry := range entries {
		commands[i] = entry.Command
	}
	return commands, nil
}

// Append persists one executed command.
func (store *SQLiteStore) Append(command string) error {
	result := store.db.Create(&CommandEntry{Command: command})
	if result.Error != nil {
		store.logger.Warn("persisting command history", zap.Error(result.Error))
		return result.Error
	}
	return nil
}

// Reset deletes all persisted commands.
func (store *SQLiteStore) Reset() error {
	result := store.db.Exec("DELETE FROM command_entries")
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// Close closes the database connection. This should be called when the
// store is no longer needed, especially in tests to allow cleanup of
// temporary database files on Windows.
func (store *SQLiteStore) Close() error {
	sqlDB, err := store.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
