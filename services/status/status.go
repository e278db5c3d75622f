package status

import (
	"time"

	eventModel "puretrack/models/event"
	shipmentModel "puretrack/models/shipment"
	shipmentTypes "puretrack/types/shipment"
)

// AtRiskWindow is how far ahead of the planned ETA a shipment still sitting
// in an early stage is flagged.
const AtRiskWindow = 5 * 24 * time.Hour

// Derive returns the current status of a shipment from its event log: the
// type of the event with the maximum timestamp, ties broken by the highest
// insertion id (last inserted wins). Events may arrive in any order; the
// result is the same regardless.
//
// An empty log is a contract violation — every shipment carries at least a
// creation event. Derive returns ORDER_INFO in that case so callers stay
// well-defined, but nothing should rely on it.
func Derive(events []eventModel.Event) eventModel.EventType {
	if len(events) == 0 {
		return eventModel.TypeOrderInfo
	}
	latest := events[0]
	for _, e := range events[1:] {
		if e.Timestamp.After(latest.Timestamp) {
			latest = e
			continue
		}
		if e.Timestamp.Equal(latest.Timestamp) && e.ID > latest.ID {
			latest = e
		}
	}
	return latest.Type
}

// Health classifies a shipment against its planned ETA at the given instant.
//
//	LATE     — ETA in the past and not yet delivered.
//	AT_RISK  — ETA within the next five days (today inclusive) while the
//	           shipment is still in ORDER_INFO or PRODUCTION_READY.
//	ON_TRACK — everything else, including shipments with no planned ETA.
func Health(s *shipmentModel.Shipment, now time.Time) shipmentTypes.HealthStatus {
	if s.PlannedETA == nil {
		return shipmentTypes.HealthOnTrack
	}
	eta := *s.PlannedETA

	if eta.Before(now) && s.Status != eventModel.TypeFinalDelivery {
		return shipmentTypes.HealthLate
	}

	if !eta.Before(now) && eta.Sub(now) <= AtRiskWindow {
		if s.Status == eventModel.TypeOrderInfo || s.Status == eventModel.TypeProductionReady {
			return shipmentTypes.HealthAtRisk
		}
	}

	return shipmentTypes.HealthOnTrack
}
