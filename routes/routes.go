package routes

import (
	"puretrack/constants"
	"puretrack/controllers/apikey"
	"puretrack/controllers/auth"
	"puretrack/controllers/chatbot"
	"puretrack/controllers/event"
	"puretrack/controllers/importer"
	"puretrack/controllers/report"
	"puretrack/controllers/settings"
	"puretrack/controllers/shipment"
	"puretrack/controllers/syncctl"
	"puretrack/controllers/webhook"
	"puretrack/live"
	"puretrack/logger"
	"puretrack/middleware"
	userModel "puretrack/models/user"
	"puretrack/services/sync"
	"puretrack/services/webhookdispatch"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, asyncLogger *logger.AsyncLogger, hub *live.Hub, runner *sync.Runner) {
	dispatcher := webhookdispatch.NewDispatcher(db, asyncLogger)

	authController := auth.NewAuthController(db, asyncLogger)
	shipmentController := shipment.NewShipmentController(db, asyncLogger)
	eventController := event.NewEventController(db, asyncLogger, hub, dispatcher)
	importerController := importer.NewImporterController(db, asyncLogger, hub)
	webhookController := webhook.NewWebhookController(db, asyncLogger)
	apiKeyController := apikey.NewApiKeyController(db, asyncLogger)
	settingsController := settings.NewSettingsController(db, asyncLogger)
	reportController := report.NewReportController(db, asyncLogger)
	chatbotController := chatbot.NewChatbotController(db, asyncLogger)
	syncController := syncctl.NewSyncController(db, asyncLogger, runner, hub, dispatcher)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": hub.ClientCount()})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/login", authController.Login)

	// External callbacks
	api.Post("/webhooks/onedrive", syncController.OneDriveNotification)
	api.Get("/webhooks/onedrive", syncController.OneDriveNotification)
	api.Post("/webhooks/carrier",
		middleware.RequireAPIKey(db, constants.ScopeEvents), syncController.CarrierEvent)

	/*=============================================================================
	| Authenticated Routes
	===============================================================================*/
	authed := api.Group("", middleware.RequireAuth())
	authed.Get("/auth/profile", authController.Profile)
	authed.Post("/auth/logout", authController.Logout)

	authed.Get("/shipments", shipmentController.List)
	authed.Get("/shipments/:id", shipmentController.Get)
	authed.Get("/shipments/:id/events", eventController.List)
	authed.Get("/events/types", eventController.Types)
	authed.Get("/reports/shipments.xlsx", reportController.Export)
	authed.Post("/chat", chatbotController.Chat)

	/*=============================================================================
	| Ops Routes
	===============================================================================*/
	ops := authed.Group("", middleware.RequireRoles(userModel.RoleOps, userModel.RoleAdmin))
	ops.Post("/shipments", shipmentController.Create)
	ops.Patch("/shipments/:id", shipmentController.Update)
	ops.Delete("/shipments/:id", shipmentController.Delete)
	ops.Post("/events", eventController.Create)
	ops.Post("/shipments/import/preview", importerController.Preview)
	ops.Post("/shipments/import", importerController.Execute)
	ops.Post("/sync/run", syncController.Run)
	ops.Get("/sync/status", syncController.Status)

	/*=============================================================================
	| Admin Routes
	===============================================================================*/
	admin := authed.Group("", middleware.RequireRoles(userModel.RoleAdmin))
	admin.Get("/settings/webhooks", webhookController.List)
	admin.Post("/settings/webhooks", webhookController.Create)
	admin.Put("/settings/webhooks/:id", webhookController.Update)
	admin.Delete("/settings/webhooks/:id", webhookController.Delete)
	admin.Get("/settings/api-keys", apiKeyController.List)
	admin.Post("/settings/api-keys", apiKeyController.Create)
	admin.Delete("/settings/api-keys/:id", apiKeyController.Revoke)
	admin.Get("/settings", settingsController.List)
	admin.Post("/settings", settingsController.Update)
	admin.Post("/settings/test-email", settingsController.TestEmail)
	admin.Get("/sync/files", syncController.Files)
	admin.Post("/sync/subscribe", syncController.Subscribe)

	/*=============================================================================
	| WebSocket feed
	===============================================================================*/
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/shipments", websocket.New(func(conn *websocket.Conn) {
		hub.Serve(conn)
	}))
}
