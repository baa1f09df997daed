package model

import "time"

// PushSubscription holds a depot operator's browser push subscription.
// Subscriptions are depot-scoped: the holder is alerted whenever schedules
// of that depot are flagged for reassignment.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	DepotID   int64     `gorm:"index;not null" json:"depotId"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
}
