package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"pallet-board-backend/internal/coordinator"
	"pallet-board-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Job is one notification to fan out to every subscriber of Topic.
type Job struct {
	Topic   string
	Message string
}

// JobForEvent maps a board event to a push job. Events nobody can
// subscribe to yield false.
func JobForEvent(e coordinator.Event) (Job, bool) {
	switch e.Type {
	case coordinator.EventSasEmptied:
		return Job{Topic: model.TopicSasEmptied, Message: "SAS vidé ! Toutes les réceptions sont rangées."}, true
	case coordinator.EventReturnsEmptied:
		return Job{Topic: model.TopicReturnsEmptied, Message: "Retours vidés."}, true
	case coordinator.EventSyncFailed:
		return Job{Topic: model.TopicSyncFailed, Message: fmt.Sprintf("Échec de synchronisation : %s", e.Message)}, true
	}
	return Job{}, false
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			log.Printf("Worker %d processing topic %s", id, job.Topic)
			wp.sendNotificationsForTopic(ctx, job)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job. It never blocks the caller: when the queue is
// full the job is dropped and logged.
func (wp *WorkerPool) Dispatch(job Job) bool {
	select {
	case wp.jobs <- job:
		return true
	default:
		log.Printf("Notification queue full, dropping %s", job.Topic)
		return false
	}
}

// Listener returns a coordinator listener dispatching push jobs.
func (wp *WorkerPool) Listener() coordinator.Listener {
	return func(e coordinator.Event) {
		if job, ok := JobForEvent(e); ok {
			wp.Dispatch(job)
		}
	}
}

// sendNotificationsForTopic fetches the topic's subscribers and notifies each.
func (wp *WorkerPool) sendNotificationsForTopic(ctx context.Context, job Job) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_topics st ON st.endpoint = push_subscriptions.endpoint").
		Where("st.topic = ?", job.Topic).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for topic %s: %v", job.Topic, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for topic %s", len(subscriptions), job.Topic)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(job.Message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
