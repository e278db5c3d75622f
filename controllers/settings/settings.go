package settings

import (
	"errors"

	"puretrack/errs"
	"puretrack/logger"
	settingModel "puretrack/models/setting"
	emailService "puretrack/services/email"
	settingsService "puretrack/services/settings"
	"puretrack/types"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// sensitiveKeys are encrypted at rest and masked in responses.
var sensitiveKeys = map[string]bool{
	settingModel.KeySMTPPassword:   true,
	settingModel.KeyAIAPIKey:       true,
	settingModel.KeyMSClientSecret: true,
	settingModel.KeyMSAccessToken:  true,
	settingModel.KeyMSRefreshToken: true,
}

const maskedValue = "********"

type SettingsController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewSettingsController(db *gorm.DB, async_logger *logger.AsyncLogger) *SettingsController {
	return &SettingsController{db: db, loggerInstance: async_logger}
}

// List returns all settings with secret values masked.
func (h *SettingsController) List(c *fiber.Ctx) error {
	values, err := settingsService.All(h.db)
	if err != nil {
		logger.Error("Failed to load settings", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to load settings", Status: fiber.StatusInternalServerError,
		})
	}

	for key, value := range values {
		if sensitiveKeys[key] && value != "" {
			values[key] = maskedValue
		}
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Settings retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    values,
	})
}

// Update stores a bag of settings. Masked placeholder values are ignored so
// the admin form can round-trip without re-entering secrets.
func (h *SettingsController) Update(c *fiber.Ctx) error {
	var values map[string]string
	if err := c.BodyParser(&values); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Error parsing request body", Status: fiber.StatusBadRequest,
		})
	}
	if len(values) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "No settings provided", Status: fiber.StatusBadRequest,
		})
	}

	for key, value := range values {
		if sensitiveKeys[key] && value == maskedValue {
			continue
		}
		if err := settingsService.Set(h.db, key, value, sensitiveKeys[key]); err != nil {
			logger.Error("Failed to save setting "+key, err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Message: "Failed to save setting " + key, Status: fiber.StatusInternalServerError,
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Settings saved successfully", Status: fiber.StatusOK,
	})
}

type testEmailRequest struct {
	To string `json:"to"`
}

// TestEmail sends a probe message through the stored SMTP configuration.
func (h *SettingsController) TestEmail(c *fiber.Ctx) error {
	var req testEmailRequest
	if err := c.BodyParser(&req); err != nil || req.To == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "A recipient address is required", Status: fiber.StatusBadRequest,
		})
	}

	err := emailService.Send(h.db, req.To, "Shipment tracker test email",
		"This is a test message confirming the SMTP configuration works.")
	if err != nil {
		status := fiber.StatusBadGateway
		if errors.Is(err, errs.ErrValidation) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(types.ApiResponse{
			Message: errs.Message(err), Status: status,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Test email sent successfully", Status: fiber.StatusOK,
	})
}
