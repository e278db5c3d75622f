package auth

import (
	"os"
	"strings"
	"time"

	"puretrack/logger"
	"puretrack/middleware"
	userModel "puretrack/models/user"
	"puretrack/types"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewAuthController(db *gorm.DB, async_logger *logger.AsyncLogger) *AuthController {
	return &AuthController{db: db, loggerInstance: async_logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a session token. The token is also
// set as a cookie so the dashboard can reconnect its websocket without
// holding the token in script.
func (h *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Error parsing request body", Status: fiber.StatusBadRequest,
		})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Email and password are required", Status: fiber.StatusBadRequest,
		})
	}

	var account userModel.User
	if err := h.db.First(&account, "email = ?", req.Email).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Invalid credentials", Status: fiber.StatusUnauthorized,
		})
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Invalid credentials", Status: fiber.StatusUnauthorized,
		})
	}

	token, err := middleware.IssueToken(&account)
	if err != nil {
		logger.Error("Failed to sign session token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Could not create session", Status: fiber.StatusInternalServerError,
		})
	}

	h.setSecureCookie(c, "access", token, int((24 * time.Hour).Seconds()))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Login successful",
		Status:  fiber.StatusOK,
		Token:   token,
		Data: fiber.Map{
			"id":    account.ID,
			"email": account.Email,
			"name":  account.Name,
			"role":  account.Role,
		},
	})
}

// Profile returns the authenticated user's account.
func (h *AuthController) Profile(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)

	var account userModel.User
	if err := h.db.First(&account, session.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "User not found", Status: fiber.StatusNotFound,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Profile retrieved successfully",
		Status:  fiber.StatusOK,
		Data:    account,
	})
}

// Logout clears the session cookie.
func (h *AuthController) Logout(c *fiber.Ctx) error {
	h.setSecureCookie(c, "access", "", -1)
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Logged out", Status: fiber.StatusOK,
	})
}

// Helper function to set secure cookies based on environment
func (h *AuthController) setSecureCookie(c *fiber.Ctx, name, value string, maxAge int) {
	isProduction := os.Getenv("APP_ENV") == "production"

	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		HTTPOnly: true,
		Secure:   isProduction,
		SameSite: "Strict",
		MaxAge:   maxAge,
		Path:     "/",
	})
}
