package setting

import (
	"time"
)

// SystemSetting is a single configuration row. Values are JSON-encoded
// strings; sensitive values are AES-GCM encrypted before storage.
type SystemSetting struct {
	Key         string    `gorm:"primaryKey;type:varchar(255)" json:"key"`
	Value       *string   `gorm:"type:text" json:"value,omitempty"`
	IsEncrypted bool      `gorm:"default:false" json:"is_encrypted"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the SystemSetting model
func (SystemSetting) TableName() string {
	return "system_settings"
}

// Well-known setting keys.
const (
	KeySMTPHost     = "SMTP_HOST"
	KeySMTPPort     = "SMTP_PORT"
	KeySMTPSecurity = "SMTP_SECURITY"
	KeySMTPUser     = "SMTP_USER"
	KeySMTPPassword = "SMTP_PASSWORD"

	KeyAIProvider = "AI_PROVIDER"
	KeyAIAPIKey   = "AI_API_KEY"
	KeyAIModel    = "AI_MODEL"

	KeyMSClientID     = "MS_CLIENT_ID"
	KeyMSClientSecret = "MS_CLIENT_SECRET"
	KeyMSTenantID     = "MS_TENANT_ID"
	KeyMSAccessToken  = "MS_ACCESS_TOKEN"
	KeyMSRefreshToken = "MS_REFRESH_TOKEN"

	KeyOneDriveFileID             = "ONEDRIVE_FILE_ID"
	KeyOneDriveSubscriptionID     = "ONEDRIVE_SUBSCRIPTION_ID"
	KeyOneDriveSubscriptionExpiry = "ONEDRIVE_SUBSCRIPTION_EXPIRY"

	KeyLastSyncRun    = "LAST_SYNC_RUN"
	KeyLastSyncResult = "LAST_SYNC_RESULT"
)
