package db

import (
	"fmt"
	"log/slog"

	"github.com/rackmind/rackmind/internal/auth"
	"github.com/rackmind/rackmind/internal/config"
	"github.com/rackmind/rackmind/internal/models"
	"github.com/rackmind/rackmind/internal/rbac"
	"gorm.io/gorm"
)

// CreateDefaultAdmin creates the bootstrap admin account if no users
// exist in the database. The RBAC enforcer must be initialized first.
func CreateDefaultAdmin(db *gorm.DB, cfg config.AuthConfig) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		slog.Info("No admin credentials configured, skipping default admin creation")
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		slog.Info("Users already exist, skipping default admin creation")
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     cfg.AdminUsername,
		DisplayName:  "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := rbac.SyncUserRole(user.ID, models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}

	slog.Info("Default admin user created", "username", user.Username)
	return nil
}
