package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pallet-board-backend/internal/coordinator"
	"pallet-board-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

const topicQuery = `SELECT .* FROM "push_subscriptions".*JOIN subscription_topics st.*WHERE st\.topic = \$1`

func TestJobForEvent(t *testing.T) {
	testCases := []struct {
		event   coordinator.Event
		topic   string
		message string
		ok      bool
	}{
		{event: coordinator.Event{Type: coordinator.EventSasEmptied}, topic: model.TopicSasEmptied, message: "SAS vidé ! Toutes les réceptions sont rangées.", ok: true},
		{event: coordinator.Event{Type: coordinator.EventReturnsEmptied}, topic: model.TopicReturnsEmptied, message: "Retours vidés.", ok: true},
		{event: coordinator.Event{Type: coordinator.EventSyncFailed, Message: "timeout"}, topic: model.TopicSyncFailed, message: "Échec de synchronisation : timeout", ok: true},
		{event: coordinator.Event{Type: coordinator.EventBoardChanged}},
		{event: coordinator.Event{Type: coordinator.EventSaved}},
	}

	for _, tc := range testCases {
		t.Run(tc.event.Type, func(t *testing.T) {
			job, ok := JobForEvent(tc.event)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.topic, job.Topic)
			assert.Equal(t, tc.message, job.Message)
		})
	}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	assert.True(t, wp.Dispatch(Job{Topic: model.TopicSasEmptied}))

	select {
	case job := <-wp.jobs:
		assert.Equal(t, model.TopicSasEmptied, job.Topic)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchNeverBlocks(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	for i := 0; i < cap(wp.jobs); i++ {
		require.True(t, wp.Dispatch(Job{Topic: model.TopicSyncFailed}))
	}
	assert.False(t, wp.Dispatch(Job{Topic: model.TopicSyncFailed}))
}

func TestWorkerPool_ListenerFiltersEvents(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})
	listen := wp.Listener()

	listen(coordinator.Event{Type: coordinator.EventBoardChanged})
	listen(coordinator.Event{Type: coordinator.EventReturnsEmptied})

	require.Len(t, wp.jobs, 1)
	assert.Equal(t, model.TopicReturnsEmptied, (<-wp.jobs).Topic)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		subscription := model.PushSubscription{
			Endpoint: "https://example.com/push",
			P256DH:   "test_p256dh",
			Auth:     "test_auth",
		}

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "test_p256dh", sub.Keys.P256dh)
				assert.Equal(t, "Retours vidés.", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(topicQuery).
			WithArgs(model.TopicReturnsEmptied).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow(subscription.Endpoint, subscription.P256DH, subscription.Auth, time.Now()))

		wp.Dispatch(Job{Topic: model.TopicReturnsEmptied, Message: "Retours vidés."})
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		subscription := model.PushSubscription{
			Endpoint: "https://example.com/expired",
			P256DH:   "test_p256dh_expired",
			Auth:     "test_auth_expired",
		}

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(topicQuery).
			WithArgs(model.TopicSasEmptied).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow(subscription.Endpoint, subscription.P256DH, subscription.Auth, time.Now()))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs(subscription.Endpoint).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Dispatch(Job{Topic: model.TopicSasEmptied, Message: "SAS vidé !"})

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("no subscribers sends nothing", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("sender must not be called")
				return nil, nil
			},
		}

		mock.ExpectQuery(topicQuery).
			WithArgs(model.TopicSyncFailed).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}))

		wp.Dispatch(Job{Topic: model.TopicSyncFailed, Message: "Échec de synchronisation : x"})

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})
}
