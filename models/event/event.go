package event

import (
	"time"

	"gorm.io/datatypes"
)

// Event is an append-only milestone record belonging to exactly one shipment.
// Rows are never updated or deleted; corrections are logged as new events.
type Event struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// DO NOT make this unique here (events are many per shipment)
	ShipmentID uint      `gorm:"not null;index" json:"shipment_id"`
	Type       EventType `gorm:"type:varchar(50);not null;index" json:"type"`

	// Event time, distinct from insertion time. Callers may backdate or
	// postdate it when correcting historical records.
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`

	Payload  datatypes.JSONMap `gorm:"type:jsonb" json:"payload,omitempty"`
	Note     *string           `gorm:"type:text" json:"note,omitempty"`
	Critical bool              `gorm:"default:false" json:"critical"`

	Source     string  `gorm:"type:varchar(30);not null;default:MANUAL" json:"source"`
	ExternalID *string `gorm:"type:varchar(255);index" json:"external_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the Event model
func (Event) TableName() string {
	return "events"
}
