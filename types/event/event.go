package event

import (
	"fmt"
	"time"

	eventModel "puretrack/models/event"
)

// EventCreateRequest represents the request payload for logging a milestone
type EventCreateRequest struct {
	ShipmentID uint                   `json:"shipment_id" validate:"required"`
	Type       string                 `json:"type" validate:"required"`
	Timestamp  *time.Time             `json:"timestamp,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Note       *string                `json:"note,omitempty"`
	Critical   bool                   `json:"critical"`
}

func (r EventCreateRequest) Validate() error {
	if r.ShipmentID == 0 {
		return fmt.Errorf("shipment_id is required")
	}
	if r.Type == "" {
		return fmt.Errorf("type is required")
	}
	if !eventModel.EventType(r.Type).IsValid() {
		return fmt.Errorf("type %q is not a recognized event type", r.Type)
	}
	return nil
}
