package apikey

import (
	"puretrack/constants"
	"puretrack/logger"
	"puretrack/middleware"
	apiKeyModel "puretrack/models/apikey"
	"puretrack/types"
	webhookTypes "puretrack/types/webhook"
	"puretrack/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ApiKeyController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewApiKeyController(db *gorm.DB, async_logger *logger.AsyncLogger) *ApiKeyController {
	return &ApiKeyController{db: db, loggerInstance: async_logger}
}

// Create mints an API key. The plaintext key appears only in this response;
// the database keeps its hash and display prefix.
func (h *ApiKeyController) Create(c *fiber.Ctx) error {
	var req webhookTypes.ApiKeyCreateRequest
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
	for _, scope := range req.Scopes {
		if scope != constants.ScopeRead && scope != constants.ScopeEvents && scope != constants.ScopeSync {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Message: "Unknown scope: " + scope, Status: fiber.StatusBadRequest,
			})
		}
	}

	plaintext, err := utils.GenerateAPIKey()
	if err != nil {
		logger.Error("Failed to generate API key", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to generate API key", Status: fiber.StatusInternalServerError,
		})
	}

	key := apiKeyModel.ApiKey{
		Name:      req.Name,
		KeyPrefix: utils.KeyPrefix(plaintext),
		KeyHash:   utils.HashAPIKey(plaintext),
		IsActive:  true,
	}
	if len(req.Scopes) > 0 {
		key.Scopes = datatypes.NewJSONSlice(req.Scopes)
	}
	if session := middleware.SessionFrom(c); session != nil {
		userID := session.UserID
		key.CreatedByUserID = &userID
	}

	if err := h.db.Create(&key).Error; err != nil {
		logger.Error("Failed to store API key", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to store API key", Status: fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "API key created successfully. Store the key now; it will not be shown again.",
		Status:  fiber.StatusCreated,
		Data: fiber.Map{
			"api_key": key,
			"key":     plaintext,
		},
	})
}

// List returns all keys with their display prefix only.
func (h *ApiKeyController) List(c *fiber.Ctx) error {
	var keys []apiKeyModel.ApiKey
	if err := h.db.Order("id").Find(&keys).Error; err != nil {
		logger.Error("Failed to list API keys", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to list API keys", Status: fiber.StatusInternalServerError,
		})
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "API keys retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    keys,
	})
}

// Revoke deactivates a key. Revoked keys stay listed for audit.
func (h *ApiKeyController) Revoke(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid API key id", Status: fiber.StatusBadRequest,
		})
	}

	result := h.db.Model(&apiKeyModel.ApiKey{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		logger.Error("Failed to revoke API key", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to revoke API key", Status: fiber.StatusInternalServerError,
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "API key not found", Status: fiber.StatusNotFound,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "API key revoked successfully", Status: fiber.StatusOK,
	})
}
