package webhook

import (
	"puretrack/logger"
	webhookModel "puretrack/models/webhook"
	"puretrack/types"
	webhookTypes "puretrack/types/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WebhookController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewWebhookController(db *gorm.DB, async_logger *logger.AsyncLogger) *WebhookController {
	return &WebhookController{db: db, loggerInstance: async_logger}
}

// List returns all registered webhook subscriptions.
func (h *WebhookController) List(c *fiber.Ctx) error {
	var subs []webhookModel.Subscription
	if err := h.db.Order("id").Find(&subs).Error; err != nil {
		logger.Error("Failed to list webhooks", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to list webhooks", Status: fiber.StatusInternalServerError,
		})
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Webhooks retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    subs,
	})
}

// Create registers a webhook. The signing secret is generated server-side and
// returned once in the response body.
func (h *WebhookController) Create(c *fiber.Ctx) error {
	var req webhookTypes.WebhookCreateRequest
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

	secret := uuid.NewString()
	sub := webhookModel.Subscription{
		URL:      req.URL,
		Events:   datatypes.NewJSONSlice(req.Events),
		Secret:   &secret,
		IsActive: req.IsActive,
	}
	if err := h.db.Create(&sub).Error; err != nil {
		logger.Error("Failed to create webhook", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to create webhook", Status: fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Webhook created successfully",
		Status:  fiber.StatusCreated,
		Data: fiber.Map{
			"subscription": sub,
			"secret":       secret,
		},
	})
}

// Update applies a partial edit to a subscription.
func (h *WebhookController) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid webhook id", Status: fiber.StatusBadRequest,
		})
	}

	var sub webhookModel.Subscription
	if err := h.db.First(&sub, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "Webhook not found", Status: fiber.StatusNotFound,
		})
	}

	var req webhookTypes.WebhookUpdateRequest
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

	if req.URL != nil {
		sub.URL = *req.URL
	}
	if req.Events != nil {
		sub.Events = datatypes.NewJSONSlice(req.Events)
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}

	if err := h.db.Save(&sub).Error; err != nil {
		logger.Error("Failed to update webhook", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to update webhook", Status: fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Webhook updated successfully",
		Status:  fiber.StatusOK,
		Data:    sub,
	})
}

// Delete removes a subscription.
func (h *WebhookController) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid webhook id", Status: fiber.StatusBadRequest,
		})
	}

	result := h.db.Delete(&webhookModel.Subscription{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete webhook", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to delete webhook", Status: fiber.StatusInternalServerError,
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "Webhook not found", Status: fiber.StatusNotFound,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Webhook deleted successfully", Status: fiber.StatusOK,
	})
}
