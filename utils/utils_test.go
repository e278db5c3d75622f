package utils

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	a, err := GenerateAPIKey()
	require.NoError(t, err)
	b, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "pk_live_"))
	assert.NotEqual(t, a, b)
}

func TestHashAPIKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, HashAPIKey("pk_live_abc"), HashAPIKey("pk_live_abc"))
	assert.NotEqual(t, HashAPIKey("pk_live_abc"), HashAPIKey("pk_live_abd"))
	assert.Len(t, HashAPIKey("pk_live_abc"), 64)
}

func TestKeyPrefix(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.Len(t, KeyPrefix(key), APIKeyPrefixLen)
	assert.Equal(t, "short", KeyPrefix("short"))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")))

	ciphertext, err := EncryptData("secret value")
	require.NoError(t, err)
	assert.NotEqual(t, "secret value", ciphertext)

	plaintext, err := DecryptData(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "secret value", plaintext)
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")))

	a, err := EncryptData("same input")
	require.NoError(t, err)
	b, err := EncryptData("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")))

	_, err := DecryptData("bm90IGEgcmVhbCBjaXBoZXJ0ZXh0")
	assert.Error(t, err)
}

func TestEncryptRequiresKey(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")
	_, err := EncryptData("data")
	assert.Error(t, err)
}
