package database

import (
	"os"

	"puretrack/logger"
	userModel "puretrack/models/user"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// seedAdminUser creates the initial admin account when the user table is
// empty. Credentials come from ADMIN_EMAIL / ADMIN_PASSWORD.
func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&userModel.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Warning("No users exist and ADMIN_EMAIL/ADMIN_PASSWORD are unset; skipping admin seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	name := "Administrator"
	admin := userModel.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         &name,
		Role:         userModel.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logger.Success("Seeded admin user " + email)
	return nil
}
