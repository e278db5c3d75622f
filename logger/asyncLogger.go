package logger

import (
	"log"

	apilogModel "puretrack/models/apilog"
	"puretrack/types"

	"gorm.io/gorm"
)

// AsyncLogger persists outbound API-call records without blocking callers.
// Producers push into a buffered channel; a single goroutine drains it into
// the api_logs table. When the buffer is full the entry is dropped rather
// than stalling the request path.
type AsyncLogger struct {
	db      *gorm.DB
	channel chan types.ApiCallEntry
}

func NewAsyncLogger(db *gorm.DB) *AsyncLogger {
	return &AsyncLogger{
		db:      db,
		channel: make(chan types.ApiCallEntry, 100), // Buffered channel to hold log entries
	}
}

func (logger *AsyncLogger) ProcessLog() {
	log.Println("Starting asynchronous API logger...")

	for entry := range logger.channel {
		dbLog := apilogModel.ApiLog{
			Provider:   entry.Provider,
			Endpoint:   entry.Endpoint,
			Method:     entry.Method,
			StatusCode: entry.StatusCode,
			DurationMs: entry.DurationMs,
			CreatedAt:  entry.CreatedAt,
		}
		if entry.RequestPayload != "" {
			dbLog.RequestPayload = &entry.RequestPayload
		}
		if entry.ResponseBody != "" {
			truncated := entry.ResponseBody
			if len(truncated) > 5000 {
				truncated = truncated[:5000]
			}
			dbLog.ResponseBody = &truncated
		}
		if entry.ErrorMessage != "" {
			dbLog.ErrorMessage = &entry.ErrorMessage
		}

		if err := logger.db.Create(&dbLog).Error; err != nil {
			log.Printf("Failed to insert API log entry: %v", err)
		}
	}
}

// Log pushes an API-call entry into the channel. Never blocks.
func (logger *AsyncLogger) Log(entry types.ApiCallEntry) {
	select {
	case logger.channel <- entry:
	default:
		log.Printf("API log buffer full, dropping entry for %s %s", entry.Method, entry.Endpoint)
	}
}
