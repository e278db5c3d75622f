package importer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	eventModel "puretrack/models/event"
	shipmentModel "puretrack/models/shipment"

	"github.com/jinzhu/now"
	"github.com/xuri/excelize/v2"
)

// ParsedRow is one spreadsheet row after header mapping and cell parsing.
// A non-empty Err marks the row as unusable; it still carries its position
// so the user sees which line failed.
type ParsedRow struct {
	RowNumber int
	Reference string
	Fields    shipmentModel.Shipment
	// Status inferred from the departure column ("ON BOARD" / "TRANSIT").
	InferredStatus *eventModel.EventType
	Err            string
}

// columnMapping maps spreadsheet headers to parse targets. Header matching is
// exact after trimming, mirroring the master file layout.
type cellKind int

const (
	kindString cellKind = iota
	kindInt
	kindFloat
	kindDate
)

type column struct {
	header string
	kind   cellKind
	assign func(*shipmentModel.Shipment, parsedCell)
}

type parsedCell struct {
	str *string
	i   *int
	f   *float64
	t   *time.Time
}

var columns = []column{
	{"Client", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.Customer = c.str }},
	{"SKU", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.SKU = c.str }},
	{"Product description (old)", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.ProductDescriptionOld = c.str }},
	{"Product description (customer)", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.ProductDescription = c.str }},

	{"Qty", kindInt, func(s *shipmentModel.Shipment, c parsedCell) { s.Quantity = c.i }},
	{"Pré-série qty", kindInt, func(s *shipmentModel.Shipment, c parsedCell) { s.QtyPreSerie = c.i }},
	{"ITS qty", kindInt, func(s *shipmentModel.Shipment, c parsedCell) { s.QtyITS = c.i }},
	{"FOC qty", kindInt, func(s *shipmentModel.Shipment, c parsedCell) { s.QtyFOC = c.i }},
	{"Packing Acc qty", kindInt, func(s *shipmentModel.Shipment, c parsedCell) { s.QtyPackingAcc = c.i }},
	{"Extra carton qty", kindInt, func(s *shipmentModel.Shipment, c parsedCell) { s.QtyExtraCarton = c.i }},
	{"Nb of cartons", kindInt, func(s *shipmentModel.Shipment, c parsedCell) { s.NbCartons = c.i }},
	{"Nb of pallets", kindInt, func(s *shipmentModel.Shipment, c parsedCell) { s.NbPallets = c.i }},

	{"Actual volume cbm", kindFloat, func(s *shipmentModel.Shipment, c parsedCell) { s.VolumeCbm = c.f }},
	{"Total GW (kg)", kindFloat, func(s *shipmentModel.Shipment, c parsedCell) { s.WeightKg = c.f }},
	{"Taux fret", kindFloat, func(s *shipmentModel.Shipment, c parsedCell) { s.FreightRate = c.f }},

	{"Supplier", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.Supplier = c.str }},
	{"Contact", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.SupplierContact = c.str }},
	{"Pure Trade", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.PureTradeRef = c.str }},

	{"Loading Place", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.LoadingPlace = c.str; s.Origin = c.str }},
	{"POD", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.POD = c.str; s.Destination = c.str }},
	{"Selling Incoterm city", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.IncotermCity = c.str }},
	{"DC to deliver", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.DCToDeliver = c.str }},

	{"QC", kindDate, func(s *shipmentModel.Shipment, c parsedCell) { s.QCDate = c.t }},
	{"ETD", kindDate, func(s *shipmentModel.Shipment, c parsedCell) { s.PlannedETD = c.t }},
	{"ETA", kindDate, func(s *shipmentModel.Shipment, c parsedCell) { s.PlannedETA = c.t }},
	{"MAD", kindDate, func(s *shipmentModel.Shipment, c parsedCell) { s.MADDate = c.t }},
	{"DATE ITS", kindDate, func(s *shipmentModel.Shipment, c parsedCell) { s.ITSDate = c.t }},
	{"Delivery date", kindDate, func(s *shipmentModel.Shipment, c parsedCell) { s.DeliveryDate = c.t }},

	{"Selling Incoterm", kindString, func(s *shipmentModel.Shipment, c parsedCell) {
		if c.str != nil && shipmentModel.IsValidIncoterm(strings.ToUpper(*c.str)) {
			s.Incoterm = strings.ToUpper(*c.str)
		}
	}},
	{"MODE", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.TransportMode = c.str }},
	{"VESSEL", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.Vessel = c.str }},
	{"BL n°", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.BLNumber = c.str }},
	{"Container nb", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.ContainerNumber = c.str }},
	{"Forwarder", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.ForwarderName = c.str }},
	{"NR BOOKING", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.ForwarderRef = c.str }},
	{"ETO", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.ETO = c.str }},
	{"Shipment N°", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.ShipmentRefExternal = c.str }},

	{"Comments for forwarder", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.CommentsForwarder = c.str }},
	{"Commentaires", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.CommentsInternal = c.str }},
	{"HS code", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.HSCode = c.str }},
	{"Départ", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.DepartureStat = c.str }},
	{"Trouvé", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.FoundStat = c.str }},

	{"LOG contact", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.ResponsablePureTrade = c.str }},
	{"Achat contact", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.AchatContact = c.str }},

	{"Order number", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.OrderNumber = c.str }},
	{"batch", kindString, func(s *shipmentModel.Shipment, c parsedCell) { s.BatchNumber = c.str }},
	{"BATCH", kindString, func(s *shipmentModel.Shipment, c parsedCell) {
		if s.BatchNumber == nil {
			s.BatchNumber = c.str
		}
	}},
}

// Parse reads the first worksheet of an .xlsx file and maps each data row to
// a ParsedRow. Row numbers are spreadsheet positions (header is row 1).
func Parse(fileBytes []byte) ([]ParsedRow, []string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no worksheet found")
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("worksheet is empty")
	}

	headers := make([]string, len(rows[0]))
	headerIndex := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		headers[i] = h
		if _, seen := headerIndex[h]; !seen {
			headerIndex[h] = i
		}
	}

	parsed := make([]ParsedRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		parsed = append(parsed, parseRow(i+2, cells, headerIndex))
	}
	return parsed, headers, nil
}

func parseRow(rowNumber int, cells []string, headerIndex map[string]int) ParsedRow {
	row := ParsedRow{RowNumber: rowNumber}

	cell := func(header string) string {
		idx, ok := headerIndex[header]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	orderNumber := cell("Order number")
	if orderNumber == "" || strings.EqualFold(orderNumber, "nan") {
		row.Err = "missing reference (Order number required)"
		return row
	}
	batch := cell("batch")
	if batch == "" {
		batch = cell("BATCH")
	}
	row.Reference = orderNumber
	if batch != "" {
		row.Reference = orderNumber + "-" + normalizeBatch(batch)
	}
	row.Fields.Reference = row.Reference
	row.Fields.Incoterm = shipmentModel.DefaultIncoterm

	for _, col := range columns {
		raw := cell(col.header)
		if raw == "" || raw == "#N/A" {
			continue
		}
		var c parsedCell
		switch col.kind {
		case kindString:
			v := raw
			c.str = &v
		case kindInt:
			n, err := parseInt(raw)
			if err != nil {
				row.Err = fmt.Sprintf("column %q: %v", col.header, err)
				return row
			}
			c.i = &n
		case kindFloat:
			f, err := parseFloat(raw)
			if err != nil {
				row.Err = fmt.Sprintf("column %q: %v", col.header, err)
				return row
			}
			c.f = &f
		case kindDate:
			t, err := parseDate(raw)
			if err != nil {
				row.Err = fmt.Sprintf("column %q: %v", col.header, err)
				return row
			}
			if t != nil {
				c.t = t
			} else {
				continue
			}
		}
		col.assign(&row.Fields, c)
	}

	// Departure column "ON BOARD" / "TRANSIT" implies the shipment is at sea.
	if row.Fields.DepartureStat != nil {
		upper := strings.ToUpper(*row.Fields.DepartureStat)
		if strings.Contains(upper, "ON BOARD") || strings.Contains(upper, "TRANSIT") {
			t := eventModel.TypeTransitOcean
			row.InferredStatus = &t
		}
	}

	return row
}

// normalizeBatch strips a trailing ".0" that numeric cells pick up.
func normalizeBatch(batch string) string {
	if f, err := strconv.ParseFloat(batch, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return batch
}

func parseInt(raw string) (int, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return int(f), nil
}

func parseFloat(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return f, nil
}

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
	"01-02-06",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// parseDate accepts the formats the master file is known to contain,
// preferring day-first layouts, then falls back to the lenient parser.
// Dates outside 2000-2100 are treated as absent (bad Excel serials), not
// as row errors — mirroring how the upstream sheet is actually cleaned.
func parseDate(raw string) (*time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return saneDate(t), nil
		}
	}
	if t, err := now.Parse(raw); err == nil {
		return saneDate(t), nil
	}
	return nil, fmt.Errorf("%q is not a recognized date", raw)
}

func saneDate(t time.Time) *time.Time {
	if t.Year() < 2000 || t.Year() > 2100 {
		return nil
	}
	return &t
}
