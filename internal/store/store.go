package store

import (
	"context"
	"errors"
	"time"
)

// Local persistence keys. The four board keys are written together on save.
const (
	KeySlots    = "pallet_data"
	KeyReturns  = "return_items"
	KeySas      = "sas_items"
	KeyArchives = "pallet_archives"
	KeyTheme    = "theme"
)

// BoardKeys lists the keys making up the persisted board.
var BoardKeys = []string{KeySlots, KeyReturns, KeySas, KeyArchives}

var (
	// ErrNoRemoteState is returned when the remote row has never been written.
	ErrNoRemoteState = errors.New("remote state not found")
)

// LocalStore is a small key-value store for JSON payloads.
type LocalStore interface {
	// Get returns the payload for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)
	// Put writes a single key.
	Put(ctx context.Context, key string, payload []byte) error
	// PutAll writes every entry atomically.
	PutAll(ctx context.Context, entries map[string][]byte) error
	Close() error
}

// RemoteRow is the remote mirror of the board.
type RemoteRow struct {
	Payload   []byte
	UpdatedAt time.Time
}

// RemoteStore holds the single shared board row.
type RemoteStore interface {
	Upsert(ctx context.Context, payload []byte, updatedAt time.Time) error
	Fetch(ctx context.Context) (RemoteRow, error)
}
