package importer

import (
	"bytes"
	"testing"

	eventModel "puretrack/models/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, header []string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseBuildsReferenceFromOrderAndBatch(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Order number", "batch", "Client"},
		[][]interface{}{
			{"4500123", "7", "Acme"},
			{"4500124", "", "Acme"},
		})

	rows, headers, err := Parse(content)
	require.NoError(t, err)
	assert.Contains(t, headers, "Order number")
	require.Len(t, rows, 2)

	assert.Equal(t, "4500123-7", rows[0].Reference)
	assert.Equal(t, "4500124", rows[1].Reference)
	assert.Equal(t, 2, rows[0].RowNumber)
	assert.Equal(t, 3, rows[1].RowNumber)
}

func TestParseStripsNumericBatchDecimal(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Order number", "batch"},
		[][]interface{}{{"4500125", "3.0"}})

	rows, _, err := Parse(content)
	require.NoError(t, err)
	assert.Equal(t, "4500125-3", rows[0].Reference)
}

func TestParseMissingOrderNumberIsRowError(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Order number", "Client"},
		[][]interface{}{{"", "Acme"}})

	rows, _, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0].Err)
}

func TestParseInfersTransitFromDepartureColumn(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Order number", "Départ"},
		[][]interface{}{
			{"4500126", "ON BOARD"},
			{"4500127", "planned"},
		})

	rows, _, err := Parse(content)
	require.NoError(t, err)

	require.NotNil(t, rows[0].InferredStatus)
	assert.Equal(t, eventModel.TypeTransitOcean, *rows[0].InferredStatus)
	assert.Nil(t, rows[1].InferredStatus)
}

func TestParseTypedColumns(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Order number", "Qty", "Total GW (kg)", "ETA", "VESSEL"},
		[][]interface{}{{"4500128", "1,250", "980.5", "15/07/2026", "MSC Aurora"}})

	rows, _, err := Parse(content)
	require.NoError(t, err)
	row := rows[0]
	require.Empty(t, row.Err)

	require.NotNil(t, row.Fields.Quantity)
	assert.Equal(t, 1250, *row.Fields.Quantity)
	require.NotNil(t, row.Fields.WeightKg)
	assert.InDelta(t, 980.5, *row.Fields.WeightKg, 0.001)
	require.NotNil(t, row.Fields.PlannedETA)
	assert.Equal(t, 2026, row.Fields.PlannedETA.Year())
	require.NotNil(t, row.Fields.Vessel)
	assert.Equal(t, "MSC Aurora", *row.Fields.Vessel)
}

func TestParseBadNumberIsRowError(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Order number", "Qty"},
		[][]interface{}{{"4500129", "a lot"}})

	rows, _, err := Parse(content)
	require.NoError(t, err)
	assert.Contains(t, rows[0].Err, "Qty")
}

func TestParseImplausibleDateIsDroppedNotError(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Order number", "ETA"},
		[][]interface{}{{"4500130", "15/07/1899"}})

	rows, _, err := Parse(content)
	require.NoError(t, err)
	assert.Empty(t, rows[0].Err)
	assert.Nil(t, rows[0].Fields.PlannedETA)
}

func TestParseLoadingPlaceAlsoSetsOrigin(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Order number", "Loading Place", "POD"},
		[][]interface{}{{"4500131", "Sihanoukville", "New York"}})

	rows, _, err := Parse(content)
	require.NoError(t, err)
	row := rows[0]
	require.NotNil(t, row.Fields.Origin)
	assert.Equal(t, "Sihanoukville", *row.Fields.Origin)
	require.NotNil(t, row.Fields.Destination)
	assert.Equal(t, "New York", *row.Fields.Destination)
}
