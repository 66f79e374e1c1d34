// Package sqlstore implements store.Store on GORM with the SQLite driver.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/store"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

type Config struct {
	// Path of the SQLite database file.
	Path string

	// MaxOpenConns bounds the pool. SQLite allows a single writer, 1 avoids
	// "database is locked" under concurrent writes.
	MaxOpenConns int

	// LogQueries turns on GORM's SQL logger.
	LogQueries bool
}

// Open connects to the SQLite database at cfg.Path.
func Open(cfg Config) (*Store, error) {
	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.LogQueries {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	dsn := cfg.Path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)

	logging.Info().Str("path", cfg.Path).Msg("Connected to SQLite")
	return &Store{db: db}, nil
}

// Migrate runs the schema migration and creates the partial unique index that
// allows a single pending request per (sender, receiver).
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&userRow{}, &edgeRow{}, &requestRow{}, &notificationRow{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_connection_requests_pending_pair
		ON connection_requests (sender_id, receiver_id) WHERE status = 'pending'`).Error
	if err != nil {
		return fmt.Errorf("pending pair index: %w", err)
	}

	logging.Info().Msg("Database migration completed")
	return nil
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps driver errors to the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return store.ErrDuplicate
	}
	return err
}
