package rbac

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelConf string

var enforcer *casbin.Enforcer

// Role names used as casbin grouping subjects.
const (
	roleAdmin = "role:admin"
	roleUser  = "role:user"
)

// InitEnforcer initializes the Casbin enforcer and seeds the static
// role policies.
func InitEnforcer(db *gorm.DB, logger *slog.Logger) error {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	// Load model from embedded string
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return fmt.Errorf("failed to parse casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	// Load policies from database
	if err := e.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	// Role permissions are fixed. AddPolicy is a no-op when the rule
	// already exists.
	e.AddPolicy(roleAdmin, "admin", "admin")
	e.AddPolicy(roleAdmin, "resources", "write")
	e.AddPolicy(roleUser, "resources", "write")
	if err := e.SavePolicy(); err != nil {
		return fmt.Errorf("failed to save policies: %w", err)
	}

	enforcer = e
	logger.Info("RBAC enforcer initialized")
	return nil
}

// GetEnforcer returns the global enforcer instance
func GetEnforcer() *casbin.Enforcer {
	return enforcer
}

func subject(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// SyncUserRole replaces the user's role grouping to match the given role.
func SyncUserRole(userID uint, role string) error {
	sub := subject(userID)

	enforcer.RemoveGroupingPolicy(sub, roleAdmin)
	enforcer.RemoveGroupingPolicy(sub, roleUser)

	target := roleUser
	if role == models.RoleAdmin {
		target = roleAdmin
	}
	if _, err := enforcer.AddGroupingPolicy(sub, target); err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// RemoveUser deletes all policies and role bindings for a user.
func RemoveUser(userID uint) error {
	sub := subject(userID)
	if _, err := enforcer.DeleteUser(sub); err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// IsAdmin checks if user has admin privileges
func IsAdmin(userID uint) (bool, error) {
	return enforcer.Enforce(subject(userID), "admin", "admin")
}

// CanWriteResources checks if user can create or modify inventory resources
func CanWriteResources(userID uint) (bool, error) {
	return enforcer.Enforce(subject(userID), "resources", "write")
}
