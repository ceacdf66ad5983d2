package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pallet-board-backend/internal/model"
)

// appStateID is the fixed id of the shared row.
const appStateID = 1

// gormRemote implements RemoteStore on the app_state table.
type gormRemote struct {
	db *gorm.DB
}

// NewGormRemoteStore creates a GORM-backed remote store.
func NewGormRemoteStore(db *gorm.DB) RemoteStore {
	return &gormRemote{db: db}
}

// Upsert writes the board payload into the shared row.
func (s *gormRemote) Upsert(ctx context.Context, payload []byte, updatedAt time.Time) error {
	row := model.AppState{
		ID:        appStateID,
		Payload:   datatypes.JSON(payload),
		UpdatedAt: updatedAt.UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert remote state: %w", err)
	}
	return nil
}

// Fetch reads the shared row.
func (s *gormRemote) Fetch(ctx context.Context) (RemoteRow, error) {
	var row model.AppState
	err := s.db.WithContext(ctx).First(&row, appStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RemoteRow{}, ErrNoRemoteState
	}
	if err != nil {
		return RemoteRow{}, fmt.Errorf("failed to fetch remote state: %w", err)
	}
	return RemoteRow{Payload: []byte(row.Payload), UpdatedAt: row.UpdatedAt}, nil
}
