package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// APIKeyPrefixLen is how many leading characters of a key remain visible
// after creation ("pk_live_xxxx").
const APIKeyPrefixLen = 12

// GenerateAPIKey returns a new plaintext API key. The plaintext is shown to
// the caller exactly once; only its hash is persisted.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}
	return "pk_live_" + base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashAPIKey returns the hex SHA-256 digest stored (and indexed) for lookup.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// KeyPrefix returns the visible identification prefix of a key.
func KeyPrefix(key string) string {
	if len(key) < APIKeyPrefixLen {
		return key
	}
	return key[:APIKeyPrefixLen]
}
