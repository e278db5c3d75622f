package eventlog

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"puretrack/errs"
	eventModel "puretrack/models/event"
	shipmentModel "puretrack/models/shipment"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&shipmentModel.Shipment{}, &eventModel.Event{}))
	return db
}

func seedShipment(t *testing.T, db *gorm.DB) shipmentModel.Shipment {
	t.Helper()
	s := shipmentModel.Shipment{
		Reference: "PO-1",
		Incoterm:  shipmentModel.DefaultIncoterm,
		Status:    eventModel.TypeOrderInfo,
	}
	require.NoError(t, db.Create(&s).Error)
	require.NoError(t, db.Create(&eventModel.Event{
		ShipmentID: s.ID,
		Type:       eventModel.TypeOrderInfo,
		Timestamp:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Source:     eventModel.SourceManual,
	}).Error)
	return s
}

func TestAppendRejectsUnknownType(t *testing.T) {
	db := testDB(t)
	s := seedShipment(t, db)

	_, err := Append(db, AppendInput{ShipmentID: s.ID, Type: "TELEPORTED"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestAppendUnknownShipmentIsNotFound(t *testing.T) {
	db := testDB(t)

	_, err := Append(db, AppendInput{ShipmentID: 9999, Type: eventModel.TypeTransitOcean})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAppendAdvancesStatus(t *testing.T) {
	db := testDB(t)
	s := seedShipment(t, db)

	ev, err := Append(db, AppendInput{
		ShipmentID: s.ID,
		Type:       eventModel.TypeTransitOcean,
		Timestamp:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, eventModel.SourceManual, ev.Source)

	var reloaded shipmentModel.Shipment
	require.NoError(t, db.First(&reloaded, s.ID).Error)
	assert.Equal(t, eventModel.TypeTransitOcean, reloaded.Status)
}

func TestAppendBackdatedEventDoesNotRegressStatus(t *testing.T) {
	db := testDB(t)
	s := seedShipment(t, db)

	_, err := Append(db, AppendInput{
		ShipmentID: s.ID,
		Type:       eventModel.TypeArrivalPortNYNJ,
		Timestamp:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// A correction with an earlier timestamp lands in the log but the shipment
	// stays at the later milestone.
	_, err = Append(db, AppendInput{
		ShipmentID: s.ID,
		Type:       eventModel.TypeTransitOcean,
		Timestamp:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var reloaded shipmentModel.Shipment
	require.NoError(t, db.First(&reloaded, s.ID).Error)
	assert.Equal(t, eventModel.TypeArrivalPortNYNJ, reloaded.Status)

	events, err := ListByShipment(db, s.ID)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestAppendDefaultsTimestampToNow(t *testing.T) {
	db := testDB(t)
	s := seedShipment(t, db)

	before := time.Now().UTC().Add(-time.Second)
	ev, err := Append(db, AppendInput{ShipmentID: s.ID, Type: eventModel.TypeProductionReady})
	require.NoError(t, err)
	assert.True(t, ev.Timestamp.After(before))
}

func TestAppendPayloadSideEffects(t *testing.T) {
	db := testDB(t)
	s := seedShipment(t, db)

	_, err := Append(db, AppendInput{
		ShipmentID: s.ID,
		Type:       eventModel.TypeSealNumberCutoff,
		Timestamp:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Payload:    map[string]interface{}{"seal_number": "SL-778"},
	})
	require.NoError(t, err)

	_, err = Append(db, AppendInput{
		ShipmentID: s.ID,
		Type:       eventModel.TypeTransitOcean,
		Timestamp:  time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
		Payload:    map[string]interface{}{"vessel_name": "MSC Aurora"},
	})
	require.NoError(t, err)

	_, err = Append(db, AppendInput{
		ShipmentID: s.ID,
		Type:       eventModel.TypeGPSPositionEtaEtd,
		Timestamp:  time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Payload:    map[string]interface{}{"new_eta": "2026-03-20"},
	})
	require.NoError(t, err)

	var reloaded shipmentModel.Shipment
	require.NoError(t, db.First(&reloaded, s.ID).Error)
	require.NotNil(t, reloaded.SealNumber)
	assert.Equal(t, "SL-778", *reloaded.SealNumber)
	require.NotNil(t, reloaded.Vessel)
	assert.Equal(t, "MSC Aurora", *reloaded.Vessel)
	require.NotNil(t, reloaded.PlannedETA)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), reloaded.PlannedETA.UTC())
}

func TestAppendUnparseableETAIsIgnored(t *testing.T) {
	db := testDB(t)
	s := seedShipment(t, db)

	_, err := Append(db, AppendInput{
		ShipmentID: s.ID,
		Type:       eventModel.TypeGPSPositionEtaEtd,
		Payload:    map[string]interface{}{"new_eta": "sometime soon"},
	})
	require.NoError(t, err)

	var reloaded shipmentModel.Shipment
	require.NoError(t, db.First(&reloaded, s.ID).Error)
	assert.Nil(t, reloaded.PlannedETA)
}

func TestListByShipmentOrdersNewestFirst(t *testing.T) {
	db := testDB(t)
	s := seedShipment(t, db)

	_, err := Append(db, AppendInput{
		ShipmentID: s.ID,
		Type:       eventModel.TypeTransitOcean,
		Timestamp:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	events, err := ListByShipment(db, s.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, eventModel.TypeTransitOcean, events[0].Type)
	assert.Equal(t, eventModel.TypeOrderInfo, events[1].Type)
}

func TestListByShipmentUnknownIDIsNotFound(t *testing.T) {
	db := testDB(t)
	_, err := ListByShipment(db, 404)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
