package chatbot

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"time"

	"puretrack/errs"
	"puretrack/logger"
	chatbotService "puretrack/services/chatbot"
	"puretrack/types"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// streamTimeout bounds one chat answer end to end.
const streamTimeout = 2 * time.Minute

type ChatbotController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewChatbotController(db *gorm.DB, async_logger *logger.AsyncLogger) *ChatbotController {
	return &ChatbotController{db: db, loggerInstance: async_logger}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat streams the assistant's answer as plain text chunks.
func (h *ChatbotController) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Error parsing request body", Status: fiber.StatusBadRequest,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), streamTimeout)

	chunks, err := chatbotService.Stream(ctx, h.db, h.loggerInstance, req.Message)
	if err != nil {
		cancel()
		status := fiber.StatusBadGateway
		if errors.Is(err, errs.ErrValidation) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(types.ApiResponse{
			Message: errs.Message(err), Status: status,
		})
	}

	c.Set("Content-Type", "text/plain; charset=utf-8")
	c.Set("Cache-Control", "no-cache")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for chunk := range chunks {
			if chunk.Err != nil {
				// The status line is already sent; append a marker the UI
				// can detect instead of silently truncating.
				_, _ = w.WriteString("\n[" + errs.Message(chunk.Err) + "]")
				break
			}
			if _, err := w.WriteString(chunk.Text); err != nil {
				break
			}
			if strings.ContainsAny(chunk.Text, " \n") {
				if err := w.Flush(); err != nil {
					break
				}
			}
		}
		_ = w.Flush()
		// Drain so the producer goroutine can finish after a write error.
		for range chunks {
		}
	})
	return nil
}
