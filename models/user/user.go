package user

import (
	"strings"
	"time"
)

// User is an operator or client account for the dashboard.
type User struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	Email        string  `gorm:"type:varchar(255);not null;unique;index" json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null" json:"-"`
	Name         *string `gorm:"type:varchar(255)" json:"name,omitempty"`

	// client, ops or admin
	Role string `gorm:"type:varchar(20);not null;default:client" json:"role"`

	// If set, restricts shipment visibility to these customers (CSV).
	AllowedCustomer *string `gorm:"type:varchar(255)" json:"allowed_customer,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the User model
func (User) TableName() string {
	return "users"
}

// AllowedCustomers returns the parsed customer restriction list, nil when the
// user may see every customer.
func (u *User) AllowedCustomers() []string {
	if u.AllowedCustomer == nil || strings.TrimSpace(*u.AllowedCustomer) == "" {
		return nil
	}
	parts := strings.Split(*u.AllowedCustomer, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Roles
const (
	RoleClient = "client"
	RoleOps    = "ops"
	RoleAdmin  = "admin"
)
