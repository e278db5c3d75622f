package shipment

import (
	"time"

	"puretrack/logger"
	"puretrack/middleware"
	eventModel "puretrack/models/event"
	shipmentModel "puretrack/models/shipment"
	statusService "puretrack/services/status"
	"puretrack/types"
	shipmentTypes "puretrack/types/shipment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ShipmentController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewShipmentController(db *gorm.DB, async_logger *logger.AsyncLogger) *ShipmentController {
	return &ShipmentController{db: db, loggerInstance: async_logger}
}

// shipmentView is a shipment plus its derived health classification.
type shipmentView struct {
	shipmentModel.Shipment
	Health shipmentTypes.HealthStatus `json:"health"`
}

func withHealth(s shipmentModel.Shipment, now time.Time) shipmentView {
	return shipmentView{Shipment: s, Health: statusService.Health(&s, now)}
}

// List returns shipments, filterable by status, customer and health. Client
// sessions only see shipments of their allowed customers.
func (h *ShipmentController) List(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)

	query := h.db.Model(&shipmentModel.Shipment{})
	if allowed := session.AllowedCustomers; len(allowed) > 0 {
		query = query.Where("customer IN ?", allowed)
	}
	if status := c.Query("status"); status != "" {
		if !eventModel.EventType(status).IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Message: "Unknown status filter", Status: fiber.StatusBadRequest,
			})
		}
		query = query.Where("status = ?", status)
	}
	if customer := c.Query("customer"); customer != "" {
		if !session.CanSeeCustomer(customer) {
			return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
				Message: "Not allowed to view this customer", Status: fiber.StatusForbidden,
			})
		}
		query = query.Where("customer = ?", customer)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"reference ILIKE ? OR order_number ILIKE ? OR container_number ILIKE ? OR bl_number ILIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var shipments []shipmentModel.Shipment
	if err := query.Order("id DESC").Find(&shipments).Error; err != nil {
		logger.Error("Failed to list shipments", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to list shipments", Status: fiber.StatusInternalServerError,
		})
	}

	now := time.Now().UTC()
	healthFilter := shipmentTypes.HealthStatus(c.Query("health"))
	views := make([]shipmentView, 0, len(shipments))
	for _, s := range shipments {
		view := withHealth(s, now)
		if healthFilter != "" && view.Health != healthFilter {
			continue
		}
		views = append(views, view)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Shipments retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    views,
	})
}

// Get returns one shipment with its event log, newest event first.
func (h *ShipmentController) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid shipment id", Status: fiber.StatusBadRequest,
		})
	}

	var s shipmentModel.Shipment
	err = h.db.Preload("Events", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("timestamp DESC, id DESC")
	}).First(&s, id).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "Shipment not found", Status: fiber.StatusNotFound,
		})
	}

	session := middleware.SessionFrom(c)
	if s.Customer != nil && !session.CanSeeCustomer(*s.Customer) {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Message: "Not allowed to view this shipment", Status: fiber.StatusForbidden,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Shipment retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    withHealth(s, time.Now().UTC()),
	})
}

// Create registers a shipment and seeds its event log with an ORDER_INFO
// entry so the derived status has a basis.
func (h *ShipmentController) Create(c *fiber.Ctx) error {
	var req shipmentTypes.ShipmentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Error parsing request body", Status: fiber.StatusBadRequest,
		})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: err.Error(), Status: fiber.StatusBadRequest,
		})
	}

	var existing int64
	h.db.Model(&shipmentModel.Shipment{}).Where("reference = ?", req.Reference).Count(&existing)
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Message: "A shipment with this reference already exists", Status: fiber.StatusConflict,
		})
	}

	s := shipmentModel.Shipment{
		Reference:          req.Reference,
		Customer:           req.Customer,
		Origin:             req.Origin,
		Destination:        req.Destination,
		Incoterm:           shipmentModel.DefaultIncoterm,
		PlannedETD:         req.PlannedETD,
		PlannedETA:         req.PlannedETA,
		ContainerNumber:    req.ContainerNumber,
		SealNumber:         req.SealNumber,
		SKU:                req.SKU,
		ProductDescription: req.ProductDescription,
		Quantity:           req.Quantity,
		WeightKg:           req.WeightKg,
		VolumeCbm:          req.VolumeCbm,
		NbPallets:          req.NbPallets,
		NbCartons:          req.NbCartons,
		OrderNumber:        req.OrderNumber,
		BatchNumber:        req.BatchNumber,
		Supplier:           req.Supplier,
		Vessel:             req.Vessel,
		BLNumber:           req.BLNumber,
		ForwarderName:      req.ForwarderName,
		TransportMode:      req.TransportMode,
		HSCode:             req.HSCode,
		Status:             eventModel.TypeOrderInfo,
	}
	if req.Incoterm != "" {
		s.Incoterm = req.Incoterm
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&s).Error; err != nil {
			return err
		}
		initial := eventModel.Event{
			ShipmentID: s.ID,
			Type:       eventModel.TypeOrderInfo,
			Timestamp:  time.Now().UTC(),
			Source:     eventModel.SourceManual,
		}
		return tx.Create(&initial).Error
	})
	if err != nil {
		logger.Error("Failed to create shipment", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to create shipment", Status: fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Shipment created successfully",
		Status:  fiber.StatusCreated,
		Data:    withHealth(s, time.Now().UTC()),
	})
}

// Update applies a partial edit. Status and reference are owned by the event
// log and the importer respectively and cannot be changed here.
func (h *ShipmentController) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid shipment id", Status: fiber.StatusBadRequest,
		})
	}

	var s shipmentModel.Shipment
	if err := h.db.First(&s, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "Shipment not found", Status: fiber.StatusNotFound,
		})
	}

	var patch map[string]interface{}
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Error parsing request body", Status: fiber.StatusBadRequest,
		})
	}
	delete(patch, "id")
	delete(patch, "reference")
	delete(patch, "status")
	delete(patch, "created_at")
	delete(patch, "events")

	if incoterm, ok := patch["incoterm"].(string); ok && !shipmentModel.IsValidIncoterm(incoterm) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Unknown incoterm", Status: fiber.StatusBadRequest,
		})
	}

	if len(patch) > 0 {
		if err := h.db.Model(&s).Updates(patch).Error; err != nil {
			logger.Error("Failed to update shipment", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Message: "Failed to update shipment", Status: fiber.StatusInternalServerError,
			})
		}
	}

	if err := h.db.First(&s, id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to reload shipment", Status: fiber.StatusInternalServerError,
		})
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Shipment updated successfully",
		Status:  fiber.StatusOK,
		Data:    withHealth(s, time.Now().UTC()),
	})
}

// Delete removes a shipment and, through the FK cascade, its events.
func (h *ShipmentController) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid shipment id", Status: fiber.StatusBadRequest,
		})
	}

	result := h.db.Delete(&shipmentModel.Shipment{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete shipment", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to delete shipment", Status: fiber.StatusInternalServerError,
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "Shipment not found", Status: fiber.StatusNotFound,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Shipment deleted successfully", Status: fiber.StatusOK,
	})
}
