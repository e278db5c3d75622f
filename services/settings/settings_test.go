package settings

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"puretrack/errs"
	settingModel "puretrack/models/setting"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&settingModel.SystemSetting{}))
	return db
}

func setEncryptionKey(t *testing.T) {
	t.Helper()
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	t.Setenv("ENCRYPTION_KEY", key)
}

func TestSetGetRoundTrip(t *testing.T) {
	db := testDB(t)

	require.NoError(t, Set(db, settingModel.KeySMTPHost, "smtp.example.com", false))

	value, err := Get(db, settingModel.KeySMTPHost)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", value)
}

func TestGetAbsentKeyIsEmpty(t *testing.T) {
	db := testDB(t)
	value, err := Get(db, "NO_SUCH_KEY")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestEncryptedValueIsNotStoredInPlaintext(t *testing.T) {
	setEncryptionKey(t)
	db := testDB(t)

	require.NoError(t, Set(db, settingModel.KeySMTPPassword, "hunter2", true))

	var row settingModel.SystemSetting
	require.NoError(t, db.First(&row, "key = ?", settingModel.KeySMTPPassword).Error)
	require.NotNil(t, row.Value)
	assert.True(t, row.IsEncrypted)
	assert.NotContains(t, *row.Value, "hunter2")

	value, err := Get(db, settingModel.KeySMTPPassword)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)
}

func TestSetOverwritesExistingValue(t *testing.T) {
	db := testDB(t)

	require.NoError(t, Set(db, settingModel.KeyAIModel, "gemini-2.5-flash", false))
	require.NoError(t, Set(db, settingModel.KeyAIModel, "gemini-2.5-pro", false))

	value, err := Get(db, settingModel.KeyAIModel)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", value)

	var count int64
	db.Model(&settingModel.SystemSetting{}).Where("key = ?", settingModel.KeyAIModel).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestLoadSMTPRequiresCredentials(t *testing.T) {
	db := testDB(t)

	_, err := LoadSMTP(db)
	assert.ErrorIs(t, err, errs.ErrValidation)

	require.NoError(t, Set(db, settingModel.KeySMTPHost, "smtp.example.com", false))
	require.NoError(t, Set(db, settingModel.KeySMTPUser, "mailer", false))
	require.NoError(t, Set(db, settingModel.KeySMTPPassword, "pw", false))

	cfg, err := LoadSMTP(db)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, "STARTTLS", cfg.Security)
}

func TestLoadAIDefaultsProviderAndModel(t *testing.T) {
	db := testDB(t)

	_, err := LoadAI(db)
	assert.ErrorIs(t, err, errs.ErrValidation)

	require.NoError(t, Set(db, settingModel.KeyAIAPIKey, "sk-test", false))

	cfg, err := LoadAI(db)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
}

func TestLoadSyncRequiresFileID(t *testing.T) {
	db := testDB(t)

	_, err := LoadSync(db)
	assert.ErrorIs(t, err, errs.ErrValidation)

	require.NoError(t, Set(db, settingModel.KeyOneDriveFileID, "item-123", false))
	cfg, err := LoadSync(db)
	require.NoError(t, err)
	assert.Equal(t, "item-123", cfg.FileID)
}

func TestLoadGraphDefaultsTenant(t *testing.T) {
	db := testDB(t)

	require.NoError(t, Set(db, settingModel.KeyMSClientID, "client", false))
	require.NoError(t, Set(db, settingModel.KeyMSClientSecret, "secret", false))

	cfg, err := LoadGraph(db)
	require.NoError(t, err)
	assert.Equal(t, "common", cfg.TenantID)
}
