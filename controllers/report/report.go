package report

import (
	"fmt"
	"time"

	"puretrack/logger"
	"puretrack/middleware"
	shipmentModel "puretrack/models/shipment"
	statusService "puretrack/services/status"
	"puretrack/types"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ReportController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewReportController(db *gorm.DB, async_logger *logger.AsyncLogger) *ReportController {
	return &ReportController{db: db, loggerInstance: async_logger}
}

var exportHeaders = []string{
	"Reference", "Customer", "Status", "Health", "Origin", "Destination",
	"Incoterm", "Planned ETD", "Planned ETA", "Container", "Seal",
	"Vessel", "BL Number", "Order Number", "Batch", "Supplier",
	"Quantity", "Weight (kg)", "Volume (cbm)", "Pallets", "Cartons",
}

// Export writes the shipment list (honoring the session's customer
// restriction) to a spreadsheet download.
func (h *ReportController) Export(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)

	query := h.db.Model(&shipmentModel.Shipment{})
	if allowed := session.AllowedCustomers; len(allowed) > 0 {
		query = query.Where("customer IN ?", allowed)
	}

	var shipments []shipmentModel.Shipment
	if err := query.Order("reference").Find(&shipments).Error; err != nil {
		logger.Error("Failed to load shipments for export", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to build export", Status: fiber.StatusInternalServerError,
		})
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}

	now := time.Now().UTC()
	for i, s := range shipments {
		row := i + 2
		values := []interface{}{
			s.Reference,
			deref(s.Customer),
			string(s.Status),
			string(statusService.Health(&s, now)),
			deref(s.Origin),
			deref(s.Destination),
			s.Incoterm,
			formatDate(s.PlannedETD),
			formatDate(s.PlannedETA),
			deref(s.ContainerNumber),
			deref(s.SealNumber),
			deref(s.Vessel),
			deref(s.BLNumber),
			deref(s.OrderNumber),
			deref(s.BatchNumber),
			deref(s.Supplier),
			derefInt(s.Quantity),
			derefFloat(s.WeightKg),
			derefFloat(s.VolumeCbm),
			derefInt(s.NbPallets),
			derefInt(s.NbCartons),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to serialize export", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to build export", Status: fiber.StatusInternalServerError,
		})
	}

	filename := fmt.Sprintf("shipments_%s.xlsx", now.Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) interface{} {
	if n == nil {
		return ""
	}
	return *n
}

func derefFloat(n *float64) interface{} {
	if n == nil {
		return ""
	}
	return *n
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
