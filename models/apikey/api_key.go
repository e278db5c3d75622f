package apikey

import (
	"time"

	"gorm.io/datatypes"
)

// ApiKey lets external applications access the API. Only the SHA-256 hash of
// the full key is stored; the plaintext is returned exactly once at creation.
type ApiKey struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	KeyPrefix string `gorm:"type:varchar(20);not null" json:"key_prefix"`
	KeyHash   string `gorm:"type:varchar(64);not null;unique;index" json:"-"`

	Scopes   datatypes.JSONSlice[string] `gorm:"" json:"scopes,omitempty"`
	IsActive bool                        `gorm:"default:true" json:"is_active"`

	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastUsedAt *time.Time `gorm:"" json:"last_used_at,omitempty"`

	CreatedByUserID *uint `gorm:"" json:"created_by_user_id,omitempty"`
}

// TableName sets the table name for the ApiKey model
func (ApiKey) TableName() string {
	return "api_keys"
}

// HasScope reports whether the key carries a scope. A key with no scopes is
// unrestricted.
func (k *ApiKey) HasScope(scope string) bool {
	if len(k.Scopes) == 0 {
		return true
	}
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
