package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pallet-board-backend/config"
	"pallet-board-backend/internal/model"
)

// InitLocal opens the local sqlite database and runs its migrations. It
// holds the board buckets and the push subscriptions.
func InitLocal(cfg *config.LocalConfig) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	if err := MigrateLocal(db); err != nil {
		return nil, err
	}
	return db, nil
}

// MigrateLocal creates the local tables.
func MigrateLocal(db *gorm.DB) error {
	log.Println("Running local database migrations...")
	if err := db.AutoMigrate(
		&model.LocalBucket{},
		&model.PushSubscription{},
		&model.SubscriptionTopic{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// InitRemote connects to the remote postgres mirror and migrates the state row table.
func InitRemote(cfg *config.RemoteConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running remote database migrations...")
	if err := db.AutoMigrate(&model.AppState{}); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	log.Println("Remote database initialization complete.")
	return db, nil
}
