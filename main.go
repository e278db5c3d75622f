package main

import (
	"os"
	"time"

	"puretrack/database"
	"puretrack/live"
	"puretrack/logger"
	"puretrack/routes"
	"puretrack/services/scheduler"
	syncService "puretrack/services/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	app := fiber.New(fiber.Config{
		ReadBufferSize:  32768,
		WriteBufferSize: 32768,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		BodyLimit:       50 * 1024 * 1024, // imports upload whole spreadsheets
	})
	if err := godotenv.Load(); err != nil {
		logger.Warning("No .env file found, relying on environment")
	}

	db, err := database.InitDB()
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("FRONTEND_URL"),
		AllowMethods:     "GET,POST,PATCH,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowCredentials: true,
	}))

	asyncLogger := logger.NewAsyncLogger(db)
	go asyncLogger.ProcessLog()

	hub := live.NewHub()
	runner := syncService.NewRunner(db, asyncLogger)

	routes.SetupRoutes(app, db, asyncLogger, hub, runner)

	jobs := scheduler.New(db, asyncLogger)
	jobs.Start()
	defer jobs.Stop()

	app_host := os.Getenv("APP_HOST")
	app_port := os.Getenv("APP_PORT")
	logger.Success("Server is running on ip: " + app_host + " port: " + app_port)
	if err := app.Listen(app_host + ":" + app_port); err != nil {
		logger.Error("Server stopped", err)
	}
}
