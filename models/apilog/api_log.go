package apilog

import (
	"time"
)

// ApiLog records an outbound API interaction (Graph, webhooks, SMTP) for
// debugging and auditing.
type ApiLog struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	Provider string `gorm:"type:varchar(50);not null;index" json:"provider"`
	Endpoint string `gorm:"type:text;not null" json:"endpoint"`
	Method   string `gorm:"type:varchar(10);not null" json:"method"`

	StatusCode     int     `gorm:"type:int" json:"status_code"`
	RequestPayload *string `gorm:"type:text" json:"request_payload,omitempty"`
	ResponseBody   *string `gorm:"type:text" json:"response_body,omitempty"`
	ErrorMessage   *string `gorm:"type:text" json:"error_message,omitempty"`
	DurationMs     int64   `gorm:"type:bigint" json:"duration_ms"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the ApiLog model
func (ApiLog) TableName() string {
	return "api_logs"
}
