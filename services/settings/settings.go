package settings

import (
	"encoding/json"
	"strconv"

	"puretrack/errs"
	settingModel "puretrack/models/setting"
	"puretrack/utils"

	"gorm.io/gorm"
)

// Get returns the decoded value of a setting or "" when it is absent.
// Encrypted values are decrypted transparently.
func Get(db *gorm.DB, key string) (string, error) {
	var row settingModel.SystemSetting
	if err := db.First(&row, "key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", errs.Wrap(err, "load setting")
	}
	if row.Value == nil {
		return "", nil
	}

	raw := *row.Value
	if row.IsEncrypted {
		decrypted, err := utils.DecryptData(raw)
		if err != nil {
			return "", errs.Wrapf(err, "decrypt setting %s", key)
		}
		raw = decrypted
	}

	// Values are stored JSON-encoded; fall back to the raw string for rows
	// written before that convention.
	var decoded string
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		return decoded, nil
	}
	return raw, nil
}

// Set stores a setting, JSON-encoding the value and encrypting it when asked.
func Set(db *gorm.DB, key, value string, encrypted bool) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return errs.Wrap(err, "encode setting")
	}
	stored := string(encoded)
	if encrypted {
		stored, err = utils.EncryptData(stored)
		if err != nil {
			return errs.Wrapf(err, "encrypt setting %s", key)
		}
	}

	row := settingModel.SystemSetting{
		Key:         key,
		Value:       &stored,
		IsEncrypted: encrypted,
	}
	if err := db.Save(&row).Error; err != nil {
		return errs.Wrap(err, "save setting")
	}
	return nil
}

// All returns every setting decoded, for the admin settings page. Encrypted
// values come back decrypted — the endpoint serving this is admin-only.
func All(db *gorm.DB) (map[string]string, error) {
	var rows []settingModel.SystemSetting
	if err := db.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "load settings")
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		value, err := Get(db, row.Key)
		if err != nil {
			return nil, err
		}
		out[row.Key] = value
	}
	return out, nil
}

// SMTPConfig is the typed mail-server configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Security string // STARTTLS | SSL/TLS | NONE
	User     string
	Password string
}

// LoadSMTP reads and validates the SMTP configuration.
func LoadSMTP(db *gorm.DB) (*SMTPConfig, error) {
	cfg := &SMTPConfig{Port: 587, Security: "STARTTLS"}

	var err error
	if cfg.Host, err = Get(db, settingModel.KeySMTPHost); err != nil {
		return nil, err
	}
	if cfg.User, err = Get(db, settingModel.KeySMTPUser); err != nil {
		return nil, err
	}
	if cfg.Password, err = Get(db, settingModel.KeySMTPPassword); err != nil {
		return nil, err
	}
	if security, err := Get(db, settingModel.KeySMTPSecurity); err != nil {
		return nil, err
	} else if security != "" {
		cfg.Security = security
	}
	if port, err := Get(db, settingModel.KeySMTPPort); err != nil {
		return nil, err
	} else if port != "" {
		if n, convErr := strconv.Atoi(port); convErr == nil {
			cfg.Port = n
		}
	}

	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" {
		return nil, errs.Validationf("SMTP configuration incomplete (host, user and password are required)")
	}
	return cfg, nil
}

// AIConfig is the typed assistant configuration.
type AIConfig struct {
	Provider string
	APIKey   string
	Model    string
}

// LoadAI reads and validates the AI assistant configuration.
func LoadAI(db *gorm.DB) (*AIConfig, error) {
	cfg := &AIConfig{Provider: "gemini", Model: "gemini-2.5-flash"}

	var err error
	if provider, err := Get(db, settingModel.KeyAIProvider); err != nil {
		return nil, err
	} else if provider != "" {
		cfg.Provider = provider
	}
	if model, err := Get(db, settingModel.KeyAIModel); err != nil {
		return nil, err
	} else if model != "" {
		cfg.Model = model
	}
	if cfg.APIKey, err = Get(db, settingModel.KeyAIAPIKey); err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		return nil, errs.Validationf("AI assistant is not configured (API key missing)")
	}
	return cfg, nil
}

// GraphConfig is the typed Microsoft Graph configuration.
type GraphConfig struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	AccessToken  string
	RefreshToken string
}

// LoadGraph reads and validates the Microsoft Graph configuration. Tokens may
// legitimately be empty before the first OAuth round-trip; client credentials
// may not.
func LoadGraph(db *gorm.DB) (*GraphConfig, error) {
	cfg := &GraphConfig{}

	var err error
	if cfg.ClientID, err = Get(db, settingModel.KeyMSClientID); err != nil {
		return nil, err
	}
	if cfg.ClientSecret, err = Get(db, settingModel.KeyMSClientSecret); err != nil {
		return nil, err
	}
	if cfg.TenantID, err = Get(db, settingModel.KeyMSTenantID); err != nil {
		return nil, err
	}
	if cfg.AccessToken, err = Get(db, settingModel.KeyMSAccessToken); err != nil {
		return nil, err
	}
	if cfg.RefreshToken, err = Get(db, settingModel.KeyMSRefreshToken); err != nil {
		return nil, err
	}

	if cfg.TenantID == "" {
		cfg.TenantID = "common"
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errs.Validationf("Microsoft integration is not configured (client id/secret missing)")
	}
	return cfg, nil
}

// SyncConfig is the typed configuration of the external-spreadsheet pull job.
type SyncConfig struct {
	FileID string
}

// LoadSync reads and validates the pull-job configuration.
func LoadSync(db *gorm.DB) (*SyncConfig, error) {
	fileID, err := Get(db, settingModel.KeyOneDriveFileID)
	if err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, errs.Validationf("no spreadsheet configured for sync (ONEDRIVE_FILE_ID missing)")
	}
	return &SyncConfig{FileID: fileID}, nil
}
