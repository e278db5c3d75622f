package importer

import (
	"fmt"
	"strings"
	"testing"

	eventModel "puretrack/models/event"
	shipmentModel "puretrack/models/shipment"
	importerTypes "puretrack/types/importer"

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

func seedShipment(t *testing.T, db *gorm.DB, reference string, mutate func(*shipmentModel.Shipment)) shipmentModel.Shipment {
	t.Helper()
	s := shipmentModel.Shipment{
		Reference: reference,
		Incoterm:  shipmentModel.DefaultIncoterm,
		Status:    eventModel.TypeOrderInfo,
	}
	if mutate != nil {
		mutate(&s)
	}
	require.NoError(t, db.Create(&s).Error)
	require.NoError(t, db.Create(&eventModel.Event{
		ShipmentID: s.ID,
		Type:       s.Status,
		Source:     eventModel.SourceImport,
	}).Error)
	return s
}

func goodRow(rowNumber int, reference string) ParsedRow {
	row := ParsedRow{RowNumber: rowNumber, Reference: reference}
	row.Fields.Reference = reference
	row.Fields.Incoterm = shipmentModel.DefaultIncoterm
	return row
}

func strPtr(s string) *string { return &s }

func TestPreviewClassifiesRows(t *testing.T) {
	db := testDB(t)
	seedShipment(t, db, "PO-100", nil)

	rows := []ParsedRow{
		goodRow(2, "PO-100"),
		goodRow(3, "PO-200"),
		{RowNumber: 4, Err: "missing reference (Order number required)"},
	}

	result, err := Preview(db, rows)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.NewCount)
	assert.Equal(t, 1, result.UpdateCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, importerTypes.RowStatusUpdate, result.Rows[0].Status)
	assert.Equal(t, importerTypes.RowStatusNew, result.Rows[1].Status)
	assert.Equal(t, importerTypes.RowStatusError, result.Rows[2].Status)
}

func TestPreviewInBatchDuplicateIsUpdate(t *testing.T) {
	db := testDB(t)

	rows := []ParsedRow{
		goodRow(2, "PO-300"),
		goodRow(3, "PO-300"),
	}

	result, err := Preview(db, rows)
	require.NoError(t, err)

	assert.Equal(t, importerTypes.RowStatusNew, result.Rows[0].Status)
	assert.Equal(t, importerTypes.RowStatusUpdate, result.Rows[1].Status)
}

func TestPreviewIsReadOnly(t *testing.T) {
	db := testDB(t)

	_, err := Preview(db, []ParsedRow{goodRow(2, "PO-400")})
	require.NoError(t, err)

	var count int64
	db.Model(&shipmentModel.Shipment{}).Count(&count)
	assert.Zero(t, count)
}

func TestExecuteCreatesShipmentWithInitialEvent(t *testing.T) {
	db := testDB(t)

	row := goodRow(2, "PO-500")
	row.Fields.Customer = strPtr("Acme")
	inferred := eventModel.TypeTransitOcean
	row.InferredStatus = &inferred

	result, err := Execute(db, []ParsedRow{row}, importerTypes.ModeUpdateOrCreate)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.TotalProcessed)

	var s shipmentModel.Shipment
	require.NoError(t, db.First(&s, "reference = ?", "PO-500").Error)
	assert.Equal(t, eventModel.TypeTransitOcean, s.Status)

	var events []eventModel.Event
	require.NoError(t, db.Where("shipment_id = ?", s.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, eventModel.TypeTransitOcean, events[0].Type)
	assert.Equal(t, eventModel.SourceImport, events[0].Source)
}

func TestExecuteBlankNeverOverwrites(t *testing.T) {
	db := testDB(t)
	seedShipment(t, db, "PO-600", func(s *shipmentModel.Shipment) {
		s.Customer = strPtr("Acme")
		s.Supplier = strPtr("Factory A")
	})

	row := goodRow(2, "PO-600")
	row.Fields.Vessel = strPtr("MSC Aurora") // Customer and Supplier stay nil

	result, err := Execute(db, []ParsedRow{row}, importerTypes.ModeUpdateOrCreate)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	var s shipmentModel.Shipment
	require.NoError(t, db.First(&s, "reference = ?", "PO-600").Error)
	require.NotNil(t, s.Customer)
	assert.Equal(t, "Acme", *s.Customer)
	require.NotNil(t, s.Supplier)
	assert.Equal(t, "Factory A", *s.Supplier)
	require.NotNil(t, s.Vessel)
	assert.Equal(t, "MSC Aurora", *s.Vessel)
}

func TestExecuteCreateOnlyNeverMutatesExisting(t *testing.T) {
	db := testDB(t)
	seedShipment(t, db, "PO-700", func(s *shipmentModel.Shipment) {
		s.Customer = strPtr("Original")
	})

	row := goodRow(2, "PO-700")
	row.Fields.Customer = strPtr("Changed")

	result, err := Execute(db, []ParsedRow{row}, importerTypes.ModeCreateOnly)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.TotalProcessed)

	var s shipmentModel.Shipment
	require.NoError(t, db.First(&s, "reference = ?", "PO-700").Error)
	assert.Equal(t, "Original", *s.Customer)
}

func TestExecuteRowErrorsDoNotAbortTheBatch(t *testing.T) {
	db := testDB(t)

	rows := make([]ParsedRow, 0, 10)
	for i := 0; i < 10; i++ {
		if i == 3 || i == 7 {
			rows = append(rows, ParsedRow{RowNumber: i + 2, Err: "missing reference (Order number required)"})
			continue
		}
		rows = append(rows, goodRow(i+2, fmt.Sprintf("PO-8%02d", i)))
	}

	result, err := Execute(db, rows, importerTypes.ModeUpdateOrCreate)
	require.NoError(t, err)

	assert.Equal(t, 8, result.Created)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, 5, result.Errors[0].Row)
	assert.Equal(t, 9, result.Errors[1].Row)
	assert.Equal(t, result.Created+result.Updated+result.Skipped+len(result.Errors), result.TotalProcessed)
}

func TestExecuteLaterRowUpdatesReferenceCreatedEarlier(t *testing.T) {
	db := testDB(t)

	first := goodRow(2, "PO-900")
	first.Fields.Customer = strPtr("Acme")
	second := goodRow(3, "PO-900")
	second.Fields.Vessel = strPtr("Ever Given")

	result, err := Execute(db, []ParsedRow{first, second}, importerTypes.ModeUpdateOrCreate)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.TotalProcessed)
}

func TestExecuteInferredStatusChangeAppendsEvent(t *testing.T) {
	db := testDB(t)
	seeded := seedShipment(t, db, "PO-910", nil)

	row := goodRow(2, "PO-910")
	inferred := eventModel.TypeTransitOcean
	row.InferredStatus = &inferred

	_, err := Execute(db, []ParsedRow{row}, importerTypes.ModeUpdateOrCreate)
	require.NoError(t, err)

	var s shipmentModel.Shipment
	require.NoError(t, db.First(&s, seeded.ID).Error)
	assert.Equal(t, eventModel.TypeTransitOcean, s.Status)

	var count int64
	db.Model(&eventModel.Event{}).Where("shipment_id = ? AND type = ?", s.ID, eventModel.TypeTransitOcean).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestExecuteRejectsUnknownMode(t *testing.T) {
	db := testDB(t)
	_, err := Execute(db, nil, "replace_all")
	assert.Error(t, err)
}

func TestExecuteAgreesWithPreview(t *testing.T) {
	db := testDB(t)
	seedShipment(t, db, "PO-920", nil)

	rows := []ParsedRow{
		goodRow(2, "PO-920"),
		goodRow(3, "PO-921"),
		{RowNumber: 4, Err: "bad row"},
	}

	preview, err := Preview(db, rows)
	require.NoError(t, err)
	result, err := Execute(db, rows, importerTypes.ModeUpdateOrCreate)
	require.NoError(t, err)

	assert.Equal(t, preview.NewCount, result.Created)
	assert.Equal(t, preview.UpdateCount, result.Updated)
	assert.Equal(t, preview.ErrorCount, len(result.Errors))
}
