package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Subscriptions are keyed by endpoint and belong to a single owner, so a
// confirmation can be fanned out to every browser the owner registered.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	Owner     string    `gorm:"size:64;not null;index"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
