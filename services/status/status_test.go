package status

import (
	"testing"
	"time"

	eventModel "puretrack/models/event"
	shipmentModel "puretrack/models/shipment"
	shipmentTypes "puretrack/types/shipment"

	"github.com/stretchr/testify/assert"
)

func ev(id uint, t eventModel.EventType, ts time.Time) eventModel.Event {
	return eventModel.Event{ID: id, Type: t, Timestamp: ts}
}

func TestDerive_MaxTimestampWins(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []eventModel.Event{
		ev(1, eventModel.TypeOrderInfo, base),
		ev(2, eventModel.TypeProductionReady, base.Add(24*time.Hour)),
		ev(3, eventModel.TypeTransitOcean, base.Add(72*time.Hour)),
	}
	assert.Equal(t, eventModel.TypeTransitOcean, Derive(events))
}

func TestDerive_IndependentOfArrivalOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []eventModel.Event{
		ev(3, eventModel.TypeTransitOcean, base.Add(72*time.Hour)),
		ev(1, eventModel.TypeOrderInfo, base),
		ev(2, eventModel.TypeProductionReady, base.Add(24*time.Hour)),
	}
	assert.Equal(t, eventModel.TypeTransitOcean, Derive(events))
}

func TestDerive_BackdatedEventDoesNotRegress(t *testing.T) {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	events := []eventModel.Event{
		ev(1, eventModel.TypeTransitOcean, base),
		// Correction inserted later but timestamped before the transit.
		ev(2, eventModel.TypeLoadingInProgress, base.Add(-48*time.Hour)),
	}
	assert.Equal(t, eventModel.TypeTransitOcean, Derive(events))
}

func TestDerive_TimestampTieLastInsertedWins(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []eventModel.Event{
		ev(7, eventModel.TypeArrivalPortNYNJ, ts),
		ev(9, eventModel.TypeImportClearanceCBP, ts),
		ev(8, eventModel.TypeUnloadingGateOut, ts),
	}
	assert.Equal(t, eventModel.TypeImportClearanceCBP, Derive(events))
}

func TestDerive_EmptyLogFallsBackToOrderInfo(t *testing.T) {
	assert.Equal(t, eventModel.TypeOrderInfo, Derive(nil))
}

func TestHealth(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	eta := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	cases := []struct {
		name   string
		eta    *time.Time
		status eventModel.EventType
		want   shipmentTypes.HealthStatus
	}{
		{"no eta is on track", nil, eventModel.TypeOrderInfo, shipmentTypes.HealthOnTrack},
		{"past eta undelivered is late", eta(-time.Hour), eventModel.TypeTransitOcean, shipmentTypes.HealthLate},
		{"past eta delivered is on track", eta(-time.Hour), eventModel.TypeFinalDelivery, shipmentTypes.HealthOnTrack},
		{"near eta still in order info is at risk", eta(48 * time.Hour), eventModel.TypeOrderInfo, shipmentTypes.HealthAtRisk},
		{"near eta production ready is at risk", eta(5 * 24 * time.Hour), eventModel.TypeProductionReady, shipmentTypes.HealthAtRisk},
		{"near eta already in transit is on track", eta(48 * time.Hour), eventModel.TypeTransitOcean, shipmentTypes.HealthOnTrack},
		{"far eta order info is on track", eta(10 * 24 * time.Hour), eventModel.TypeOrderInfo, shipmentTypes.HealthOnTrack},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &shipmentModel.Shipment{PlannedETA: tc.eta, Status: tc.status}
			assert.Equal(t, tc.want, Health(s, now))
		})
	}
}
