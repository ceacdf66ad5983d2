package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Topics []SubscriptionTopic `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// SubscriptionTopic links a subscription to a board event topic.
type SubscriptionTopic struct {
	Endpoint string `gorm:"primaryKey"`
	Topic    string `gorm:"primaryKey;size:32;index"`
}

// Board event topics a subscription can follow.
const (
	TopicSasEmptied     = "sas_emptied"
	TopicReturnsEmptied = "returns_emptied"
	TopicSyncFailed     = "sync_failed"
)

// Topics lists every known topic.
var Topics = []string{TopicSasEmptied, TopicReturnsEmptied, TopicSyncFailed}

// ValidTopic reports whether t is a known topic.
func ValidTopic(t string) bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}
