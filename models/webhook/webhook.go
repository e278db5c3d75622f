package webhook

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription registers an external service that wants to be notified of
// shipment events.
type Subscription struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	URL    string                      `gorm:"type:text;not null" json:"url"`
	Events datatypes.JSONSlice[string] `gorm:"not null" json:"events"`

	// Secret signs deliveries (HMAC-SHA256 over the body).
	Secret   *string `gorm:"type:varchar(255)" json:"secret,omitempty"`
	IsActive bool    `gorm:"default:true" json:"is_active"`

	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastTriggeredAt *time.Time `gorm:"" json:"last_triggered_at,omitempty"`
	FailureCount    int        `gorm:"default:0" json:"failure_count"`
}

// TableName sets the table name for the Subscription model
func (Subscription) TableName() string {
	return "webhook_subscriptions"
}

// WantsEvent reports whether the subscription listens for the given event name.
func (s *Subscription) WantsEvent(name string) bool {
	for _, e := range s.Events {
		if e == name {
			return true
		}
	}
	return false
}
