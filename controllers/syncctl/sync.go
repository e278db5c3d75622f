package syncctl

import (
	"context"
	"errors"
	"time"

	"puretrack/errs"
	"puretrack/live"
	"puretrack/logger"
	eventModel "puretrack/models/event"
	settingModel "puretrack/models/setting"
	shipmentModel "puretrack/models/shipment"
	eventlogService "puretrack/services/eventlog"
	"puretrack/services/onedrive"
	settingsService "puretrack/services/settings"
	syncService "puretrack/services/sync"
	"puretrack/services/webhookdispatch"
	"puretrack/types"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SyncController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
	runner         *syncService.Runner
	hub            *live.Hub
	dispatcher     *webhookdispatch.Dispatcher
}

func NewSyncController(db *gorm.DB, async_logger *logger.AsyncLogger, runner *syncService.Runner, hub *live.Hub, dispatcher *webhookdispatch.Dispatcher) *SyncController {
	return &SyncController{db: db, loggerInstance: async_logger, runner: runner, hub: hub, dispatcher: dispatcher}
}

// Run triggers a sync pass. Rejected with 409 when one is already in flight.
func (h *SyncController) Run(c *fiber.Ctx) error {
	if err := h.runner.Trigger("manual"); err != nil {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Message: errs.Message(err), Status: fiber.StatusConflict,
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(types.ApiResponse{
		Message: "Sync started", Status: fiber.StatusAccepted,
	})
}

// Status reports whether a sync is running and the outcome of the last pass.
func (h *SyncController) Status(c *fiber.Ctx) error {
	data := fiber.Map{
		"running": h.runner.Running(),
		"last":    h.runner.Last(),
	}
	if lastRun, err := settingsService.Get(h.db, settingModel.KeyLastSyncRun); err == nil && lastRun != "" {
		data["last_run"] = lastRun
	}
	if sub, err := onedrive.StoredSubscription(h.db); err == nil && sub != nil {
		data["subscription"] = sub
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Sync status retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    data,
	})
}

// Files lists candidate spreadsheets from the connected drive.
func (h *SyncController) Files(c *fiber.Ctx) error {
	client, err := onedrive.New(h.db, h.loggerInstance)
	if err != nil {
		return h.externalError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()
	files, err := client.ListExcelFiles(ctx)
	if err != nil {
		return h.externalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Files retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    files,
	})
}

// Subscribe registers a change notification for the configured spreadsheet so
// edits trigger a sync without polling.
func (h *SyncController) Subscribe(c *fiber.Ctx) error {
	cfg, err := settingsService.LoadSync(h.db)
	if err != nil {
		return h.externalError(c, err)
	}

	client, err := onedrive.New(h.db, h.loggerInstance)
	if err != nil {
		return h.externalError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()
	info, err := client.CreateSubscription(ctx, cfg.FileID)
	if err != nil {
		return h.externalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Subscription created successfully",
		Status:  fiber.StatusCreated,
		Data:    info,
	})
}

// OneDriveNotification handles Graph callbacks. On the initial handshake the
// validation token must be echoed back as plain text; real notifications
// trigger a sync pass.
func (h *SyncController) OneDriveNotification(c *fiber.Ctx) error {
	if token := c.Query("validationToken"); token != "" {
		c.Set("Content-Type", "text/plain")
		return c.Status(fiber.StatusOK).SendString(token)
	}

	var notification struct {
		Value []struct {
			ClientState    string `json:"clientState"`
			SubscriptionID string `json:"subscriptionId"`
		} `json:"value"`
	}
	if err := c.BodyParser(&notification); err != nil || len(notification.Value) == 0 {
		return c.SendStatus(fiber.StatusAccepted)
	}
	if !onedrive.ValidClientState(notification.Value[0].ClientState) {
		logger.Warning("Dropping change notification with unknown client state")
		return c.SendStatus(fiber.StatusAccepted)
	}

	if err := h.runner.Trigger("onedrive"); err != nil {
		// A pass is already running; it will pick up the change.
		logger.Info("Change notification received while sync in flight")
	}
	// Graph expects a fast 2xx regardless of processing outcome.
	return c.SendStatus(fiber.StatusAccepted)
}

type carrierEventRequest struct {
	ShipmentReference string                 `json:"shipment_reference"`
	Type              string                 `json:"type"`
	Timestamp         *time.Time             `json:"timestamp,omitempty"`
	Payload           map[string]interface{} `json:"payload,omitempty"`
	ExternalID        *string                `json:"external_id,omitempty"`
}

// CarrierEvent ingests a milestone pushed by an external carrier system,
// authenticated by API key.
func (h *SyncController) CarrierEvent(c *fiber.Ctx) error {
	var req carrierEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Error parsing request body", Status: fiber.StatusBadRequest,
		})
	}
	if req.ShipmentReference == "" || req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "shipment_reference and type are required", Status: fiber.StatusBadRequest,
		})
	}

	var s shipmentModel.Shipment
	if err := h.db.First(&s, "reference = ?", req.ShipmentReference).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "Shipment not found", Status: fiber.StatusNotFound,
		})
	}

	in := eventlogService.AppendInput{
		ShipmentID: s.ID,
		Type:       eventModel.EventType(req.Type),
		Payload:    req.Payload,
		Source:     eventModel.SourceWebhook,
		ExternalID: req.ExternalID,
	}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}

	ev, err := eventlogService.Append(h.db, in)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Message: errs.Message(err), Status: fiber.StatusBadRequest,
			})
		}
		logger.Error("Carrier event rejected", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Could not record event", Status: fiber.StatusInternalServerError,
		})
	}

	h.hub.Broadcast("event_created")
	h.dispatcher.DispatchAsync(webhookdispatch.Delivery{
		Event:             string(ev.Type),
		ShipmentReference: s.Reference,
		Timestamp:         ev.Timestamp,
		Data:              ev,
	})

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Event recorded successfully",
		Status:  fiber.StatusCreated,
		Data:    ev,
	})
}

func (h *SyncController) externalError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadGateway
	if errors.Is(err, errs.ErrValidation) {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(types.ApiResponse{
		Message: errs.Message(err), Status: status,
	})
}
