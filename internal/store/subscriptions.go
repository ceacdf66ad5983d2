package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pallet-board-backend/internal/model"
)

// ErrSubscriptionNotFound is returned for unknown push endpoints.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionStore persists browser push subscriptions and their topics.
type SubscriptionStore interface {
	Put(ctx context.Context, sub model.PushSubscription, topics []string) error
	Get(ctx context.Context, endpoint string) (model.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

type gormSubscriptions struct {
	db *gorm.DB
}

// NewGormSubscriptionStore creates a GORM-backed subscription store.
func NewGormSubscriptionStore(db *gorm.DB) SubscriptionStore {
	return &gormSubscriptions{db: db}
}

// Put creates or replaces a subscription and its topic set.
func (s *gormSubscriptions) Put(ctx context.Context, sub model.PushSubscription, topics []string) error {
	sub.Topics = nil
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.SubscriptionTopic{}).Error; err != nil {
			return fmt.Errorf("failed to reset subscription topics: %w", err)
		}
		if len(topics) == 0 {
			return nil
		}
		rows := make([]model.SubscriptionTopic, 0, len(topics))
		seen := make(map[string]bool, len(topics))
		for _, t := range topics {
			if seen[t] {
				continue
			}
			seen[t] = true
			rows = append(rows, model.SubscriptionTopic{Endpoint: sub.Endpoint, Topic: t})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save subscription topics: %w", err)
		}
		return nil
	})
}

// Get returns the subscription with its topics preloaded.
func (s *gormSubscriptions) Get(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Topics").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PushSubscription{}, ErrSubscriptionNotFound
	}
	if err != nil {
		return model.PushSubscription{}, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return sub, nil
}

// Delete removes a subscription and its topics.
func (s *gormSubscriptions) Delete(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.SubscriptionTopic{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error
	})
}
