package database

import (
	"fmt"
	"os"

	"puretrack/logger"
	"puretrack/models/apikey"
	"puretrack/models/apilog"
	"puretrack/models/event"
	"puretrack/models/setting"
	"puretrack/models/shipment"
	"puretrack/models/user"
	"puretrack/models/webhook"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Warning("No .env file found, relying on environment")
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	dbUser := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, dbUser, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	if err := seedAdminUser(DB); err != nil {
		logger.Error("Failed to seed admin user", err)
		return nil, err
	}

	return DB, nil
}

// autoMigrate runs auto migration for all models
func autoMigrate() error {
	// Stage 1: models without foreign keys
	stage1Models := []interface{}{
		&user.User{},
		&shipment.Shipment{},
		&setting.SystemSetting{},
		&apilog.ApiLog{},
	}
	for _, model := range stage1Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: models depending on stage 1
	stage2Models := []interface{}{
		&event.Event{},
		&webhook.Subscription{},
		&apikey.ApiKey{},
	}
	for _, model := range stage2Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates additional indexes for better performance
func createIndexes() error {
	// Shipment indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_shipments_reference ON shipments(reference)").Error; err != nil {
		return fmt.Errorf("failed to create shipment reference index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments(status)").Error; err != nil {
		return fmt.Errorf("failed to create shipment status index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_shipments_customer ON shipments(customer)").Error; err != nil {
		return fmt.Errorf("failed to create shipment customer index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_shipments_planned_eta ON shipments(planned_eta)").Error; err != nil {
		return fmt.Errorf("failed to create shipment planned_eta index: %w", err)
	}

	// Event indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_events_shipment_id ON events(shipment_id)").Error; err != nil {
		return fmt.Errorf("failed to create event shipment_id index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_events_shipment_ts ON events(shipment_id, timestamp DESC, id DESC)").Error; err != nil {
		return fmt.Errorf("failed to create event ordering index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_events_type ON events(type)").Error; err != nil {
		return fmt.Errorf("failed to create event type index: %w", err)
	}

	// API log indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_api_logs_provider ON api_logs(provider)").Error; err != nil {
		return fmt.Errorf("failed to create api_log provider index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_api_logs_created_at ON api_logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create api_log created_at index: %w", err)
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
