package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// badgerLocal implements LocalStore on an embedded badger database.
type badgerLocal struct {
	db *badger.DB
}

// OpenBadgerLocalStore opens (or creates) a badger directory. An empty dir
// opens an in-memory store.
func OpenBadgerLocalStore(dir string) (LocalStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &badgerLocal{db: db}, nil
}

func (s *badgerLocal) Get(_ context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read local key %s: %w", key, err)
	}
	return payload, true, nil
}

func (s *badgerLocal) Put(ctx context.Context, key string, payload []byte) error {
	return s.PutAll(ctx, map[string][]byte{key: payload})
}

func (s *badgerLocal) PutAll(_ context.Context, entries map[string][]byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for key, payload := range entries {
			if err := txn.Set([]byte(key), payload); err != nil {
				return fmt.Errorf("failed to write local key %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *badgerLocal) Close() error { return s.db.Close() }
