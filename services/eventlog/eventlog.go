package eventlog

import (
	"fmt"
	"time"

	"puretrack/errs"
	"puretrack/logger"
	eventModel "puretrack/models/event"
	shipmentModel "puretrack/models/shipment"
	statusService "puretrack/services/status"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AppendInput carries everything needed to log a milestone against a shipment.
type AppendInput struct {
	ShipmentID uint
	Type       eventModel.EventType
	// Zero value means "now". Backdating and postdating are both allowed so
	// historical records can be corrected from import data.
	Timestamp  time.Time
	Payload    map[string]interface{}
	Note       *string
	Critical   bool
	Source     string
	ExternalID *string
}

// Append inserts an event and brings the owning shipment in line with it:
// payload side effects are applied to shipment fields and the shipment status
// is re-derived over the full log. Concurrent appends converge because the
// derivation only depends on (timestamp, id) ordering, not arrival order.
func Append(db *gorm.DB, in AppendInput) (*eventModel.Event, error) {
	if !in.Type.IsValid() {
		return nil, errs.Validationf("event type %q is not a recognized event type", in.Type)
	}

	var shipment shipmentModel.Shipment
	if err := db.First(&shipment, in.ShipmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("shipment %d not found", in.ShipmentID)
		}
		return nil, errs.Wrap(err, "load shipment")
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	source := in.Source
	if source == "" {
		source = eventModel.SourceManual
	}

	ev := eventModel.Event{
		ShipmentID: shipment.ID,
		Type:       in.Type,
		Timestamp:  ts,
		Note:       in.Note,
		Critical:   in.Critical,
		Source:     source,
		ExternalID: in.ExternalID,
	}
	if in.Payload != nil {
		ev.Payload = datatypes.JSONMap(in.Payload)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ev).Error; err != nil {
			return errs.Wrap(err, "insert event")
		}

		applyPayload(&shipment, in.Type, in.Payload)

		derived, err := deriveCurrentStatus(tx, shipment.ID)
		if err != nil {
			return err
		}
		shipment.Status = derived

		if err := tx.Save(&shipment).Error; err != nil {
			return errs.Wrap(err, "update shipment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ev, nil
}

// ListByShipment returns the shipment's events newest-first.
func ListByShipment(db *gorm.DB, shipmentID uint) ([]eventModel.Event, error) {
	var exists int64
	if err := db.Model(&shipmentModel.Shipment{}).Where("id = ?", shipmentID).Count(&exists).Error; err != nil {
		return nil, errs.Wrap(err, "check shipment")
	}
	if exists == 0 {
		return nil, errs.NotFoundf("shipment %d not found", shipmentID)
	}

	var events []eventModel.Event
	if err := db.Where("shipment_id = ?", shipmentID).
		Order("timestamp DESC, id DESC").
		Find(&events).Error; err != nil {
		return nil, errs.Wrap(err, "list events")
	}
	return events, nil
}

func deriveCurrentStatus(tx *gorm.DB, shipmentID uint) (eventModel.EventType, error) {
	var events []eventModel.Event
	if err := tx.Select("id", "type", "timestamp").
		Where("shipment_id = ?", shipmentID).
		Find(&events).Error; err != nil {
		return "", errs.Wrap(err, "load event log")
	}
	return statusService.Derive(events), nil
}

// applyPayload copies well-known payload fields onto the shipment record so
// the list view reflects milestone data without joining the event log.
func applyPayload(s *shipmentModel.Shipment, t eventModel.EventType, payload map[string]interface{}) {
	if payload == nil {
		return
	}

	switch t {
	case eventModel.TypeSealNumberCutoff:
		if v, ok := payload["seal_number"].(string); ok && v != "" {
			s.SealNumber = &v
		}
	case eventModel.TypeContainerReadyForDeparture:
		if v, ok := payload["container_number"].(string); ok && v != "" {
			s.ContainerNumber = &v
		}
	case eventModel.TypePhotosContainerWeight:
		if w, ok := asFloat(payload["weight_kg"]); ok {
			s.WeightKg = &w
		}
	case eventModel.TypeGPSPositionEtaEtd:
		if v, ok := payload["new_eta"].(string); ok && v != "" {
			if eta, err := parseETA(v); err == nil {
				s.PlannedETA = &eta
			} else {
				logger.Warning(fmt.Sprintf("Ignoring unparseable new_eta %q: %v", v, err))
			}
		}
	case eventModel.TypeTransitOcean:
		if v, ok := payload["vessel_name"].(string); ok && v != "" {
			s.Vessel = &v
		}
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func parseETA(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported datetime format %q", v)
}
