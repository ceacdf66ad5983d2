package store

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pallet-board-backend/internal/db"
	"pallet-board-backend/internal/model"
)

// A helper function to create a mock postgres connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteDB opens a migrated sqlite database in a temp dir.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "local.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.MigrateLocal(gormDB))
	sqlDB, _ := gormDB.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return gormDB
}

func TestLocalStores(t *testing.T) {
	stores := map[string]func(t *testing.T) LocalStore{
		"gorm sqlite": func(t *testing.T) LocalStore {
			return NewGormLocalStore(newSQLiteDB(t))
		},
		"badger in-memory": func(t *testing.T) LocalStore {
			s, err := OpenBadgerLocalStore("")
			require.NoError(t, err)
			return s
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			_, ok, err := s.Get(ctx, KeySlots)
			require.NoError(t, err)
			assert.False(t, ok, "absent key")

			require.NoError(t, s.PutAll(ctx, map[string][]byte{
				KeySlots:    []byte(`{"A-1-3":{"locationId":"A-1-3","status":"EMPTY"}}`),
				KeySas:      []byte(`[]`),
				KeyReturns:  []byte(`[]`),
				KeyArchives: []byte(`[]`),
			}))

			payload, ok, err := s.Get(ctx, KeySlots)
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"A-1-3":{"locationId":"A-1-3","status":"EMPTY"}}`, string(payload))

			// overwrite one key, the others stay
			require.NoError(t, s.PutAll(ctx, map[string][]byte{KeySas: []byte(`[{"id":"x"}]`)}))
			payload, _, err = s.Get(ctx, KeySas)
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":"x"}]`, string(payload))
			payload, _, err = s.Get(ctx, KeyArchives)
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(payload))

			require.NoError(t, s.Put(ctx, KeyTheme, []byte(`"dark"`)))
			payload, ok, err = s.Get(ctx, KeyTheme)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `"dark"`, string(payload))
		})
	}
}

func TestGormRemote_Upsert(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormRemoteStore(gormDB)
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "app_state" ("id","payload","updated_at") VALUES ($1,$2,$3) ON CONFLICT ("id") DO UPDATE SET`)).
		WithArgs(1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.Upsert(context.Background(), []byte(`{"sas":[]}`), now)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRemote_UpsertError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormRemoteStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "app_state"`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.Upsert(context.Background(), []byte(`{}`), time.Now())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRemote_Fetch(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(`SELECT * FROM "app_state" WHERE "app_state"."id" = $1 ORDER BY "app_state"."id" LIMIT $2`)

	testCases := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectedRow RemoteRow
		expectedErr error
	}{
		{
			name: "Row present",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs(1, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "payload", "updated_at"}).
						AddRow(1, []byte(`{"lastUpdated":1}`), now))
			},
			expectedRow: RemoteRow{Payload: []byte(`{"lastUpdated":1}`), UpdatedAt: now},
		},
		{
			name: "Never written",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs(1, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "payload", "updated_at"}))
			},
			expectedErr: ErrNoRemoteState,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newMockDB(t)
			tc.mockSetup(mock)

			row, err := NewGormRemoteStore(gormDB).Fetch(context.Background())
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedRow, row)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSubscriptionStore(t *testing.T) {
	ctx := context.Background()
	s := NewGormSubscriptionStore(newSQLiteDB(t))
	sub := model.PushSubscription{Endpoint: "https://push.example.com/1", P256DH: "key", Auth: "auth"}

	_, err := s.Get(ctx, sub.Endpoint)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	require.NoError(t, s.Put(ctx, sub, []string{model.TopicSasEmptied, model.TopicSasEmptied, model.TopicSyncFailed}))
	got, err := s.Get(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "key", got.P256DH)
	assert.ElementsMatch(t, []string{model.TopicSasEmptied, model.TopicSyncFailed}, topicNames(got))

	sub.Auth = "rotated"
	require.NoError(t, s.Put(ctx, sub, []string{model.TopicReturnsEmptied}))
	got, err = s.Get(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.Auth)
	assert.Equal(t, []string{model.TopicReturnsEmptied}, topicNames(got))

	require.NoError(t, s.Delete(ctx, sub.Endpoint))
	_, err = s.Get(ctx, sub.Endpoint)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func topicNames(sub model.PushSubscription) []string {
	names := make([]string, 0, len(sub.Topics))
	for _, t := range sub.Topics {
		names = append(names, t.Topic)
	}
	return names
}
