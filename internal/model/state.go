package model

import (
	"time"

	"gorm.io/datatypes"
)

// LocalBucket is one key of the local persistence (slot map, SAS, returns,
// archives, theme). Payload is the JSON value stored under Key.
type LocalBucket struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Payload   []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AppState is the single remote row mirroring the whole board.
type AppState struct {
	ID        int64          `gorm:"primaryKey;autoIncrement:false"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime:false"`
}

// TableName keeps the row shared with existing browser clients.
func (AppState) TableName() string { return "app_state" }
