package event

import (
	"errors"
	"time"

	"puretrack/errs"
	"puretrack/live"
	"puretrack/logger"
	eventModel "puretrack/models/event"
	shipmentModel "puretrack/models/shipment"
	eventlogService "puretrack/services/eventlog"
	"puretrack/services/webhookdispatch"
	"puretrack/types"
	eventTypes "puretrack/types/event"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type EventController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
	hub            *live.Hub
	dispatcher     *webhookdispatch.Dispatcher
}

func NewEventController(db *gorm.DB, async_logger *logger.AsyncLogger, hub *live.Hub, dispatcher *webhookdispatch.Dispatcher) *EventController {
	return &EventController{db: db, loggerInstance: async_logger, hub: hub, dispatcher: dispatcher}
}

// Create logs a milestone event, pushes a change notice to connected
// dashboards and fans the event out to registered webhooks.
func (h *EventController) Create(c *fiber.Ctx) error {
	var req eventTypes.EventCreateRequest
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

	in := eventlogService.AppendInput{
		ShipmentID: req.ShipmentID,
		Type:       eventModel.EventType(req.Type),
		Payload:    req.Payload,
		Note:       req.Note,
		Critical:   req.Critical,
		Source:     eventModel.SourceManual,
	}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}

	ev, err := eventlogService.Append(h.db, in)
	if err != nil {
		return h.appendError(c, err)
	}

	h.hub.Broadcast("event_created")

	var s shipmentModel.Shipment
	if h.db.First(&s, ev.ShipmentID).Error == nil {
		h.dispatcher.DispatchAsync(webhookdispatch.Delivery{
			Event:             string(ev.Type),
			ShipmentReference: s.Reference,
			Timestamp:         ev.Timestamp,
			Data:              ev,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Event logged successfully",
		Status:  fiber.StatusCreated,
		Data:    ev,
	})
}

// List returns a shipment's events, newest first.
func (h *EventController) List(c *fiber.Ctx) error {
	shipmentID, err := c.ParamsInt("id")
	if err != nil || shipmentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid shipment id", Status: fiber.StatusBadRequest,
		})
	}

	events, err := eventlogService.ListByShipment(h.db, uint(shipmentID))
	if err != nil {
		return h.appendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Events retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    events,
	})
}

// Types returns the milestone catalogue grouped by dashboard category.
func (h *EventController) Types(c *fiber.Ctx) error {
	grouped := make(map[string][]string, len(eventModel.Categories))
	for category, members := range eventModel.Categories {
		names := make([]string, len(members))
		for i, member := range members {
			names[i] = string(member)
		}
		grouped[string(category)] = names
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Event types retrieved successfully",
		Status:  fiber.StatusOK,
		Data: fiber.Map{
			"categories": grouped,
			"generated":  time.Now().UTC(),
		},
	})
}

func (h *EventController) appendError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: errs.Message(err), Status: fiber.StatusBadRequest,
		})
	case errors.Is(err, errs.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: errs.Message(err), Status: fiber.StatusNotFound,
		})
	default:
		logger.Error("Event operation failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Event operation failed", Status: fiber.StatusInternalServerError,
		})
	}
}
