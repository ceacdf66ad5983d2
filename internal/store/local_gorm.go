package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pallet-board-backend/internal/model"
)

// gormLocal implements LocalStore on the local_buckets table.
type gormLocal struct {
	db *gorm.DB
}

// NewGormLocalStore creates a GORM-backed local store.
func NewGormLocalStore(db *gorm.DB) LocalStore {
	return &gormLocal{db: db}
}

func (s *gormLocal) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var bucket model.LocalBucket
	err := s.db.WithContext(ctx).First(&bucket, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read local key %s: %w", key, err)
	}
	return bucket.Payload, true, nil
}

func (s *gormLocal) Put(ctx context.Context, key string, payload []byte) error {
	return s.PutAll(ctx, map[string][]byte{key: payload})
}

func (s *gormLocal) PutAll(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UTC()
	buckets := make([]model.LocalBucket, 0, len(entries))
	for key, payload := range entries {
		buckets = append(buckets, model.LocalBucket{Key: key, Payload: payload, UpdatedAt: now})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).Create(&buckets).Error; err != nil {
			return fmt.Errorf("batch upsert local buckets failed: %w", err)
		}
		return nil
	})
}

// Close leaves the connection open; it is shared with the subscription store.
func (s *gormLocal) Close() error { return nil }
