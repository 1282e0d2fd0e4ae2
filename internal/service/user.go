package service

import (
	"errors"
	"fmt"

	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/auth"
	"github.com/rackmind/rackmind/internal/models"
	"github.com/rackmind/rackmind/internal/rbac"
	"gorm.io/gorm"
)

// UserService contains the business logic for account management.
// Role changes are mirrored into the RBAC policy store.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// UserOption is the reduced shape used by assignment dropdowns.
type UserOption struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// List returns users matching the filter, newest first, paginated.
func (s *UserService) List(filter UserFilter, page Page) ([]models.User, PageInfo, error) {
	page = page.Clamp()

	query := s.db.Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("username LIKE ? OR display_name LIKE ? OR email LIKE ?", kw, kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PageInfo{}, err
	}

	var users []models.User
	if err := query.Order("created_at DESC").
		Offset(page.offset()).Limit(page.PageSize).
		Find(&users).Error; err != nil {
		return nil, PageInfo{}, err
	}
	return users, PageInfo{Page: page.Page, PageSize: page.PageSize, Total: total}, nil
}

// Options returns active users ordered by display name, for pickers.
func (s *UserService) Options() ([]UserOption, error) {
	var users []models.User
	if err := s.db.Where("is_active = ?", true).Order("display_name").Find(&users).Error; err != nil {
		return nil, err
	}
	opts := make([]UserOption, 0, len(users))
	for _, u := range users {
		opts = append(opts, UserOption{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName})
	}
	return opts, nil
}

// Get returns a single user by ID.
func (s *UserService) Get(id uint) (*models.User, error) {
	var u models.User
	if err := s.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create registers an account. Username and email must be unique.
func (s *UserService) Create(actor audit.Actor, req CreateUserRequest, client audit.ClientMeta) (*models.User, error) {
	if req.Username == "" || req.Password == "" || req.DisplayName == "" {
		return nil, &ValidationError{Message: "username, password and display_name are required"}
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, &ValidationError{Message: "role must be admin or user"}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	// An empty email means "no email"; it must not occupy the unique index.
	email := req.Email
	if email != nil && *email == "" {
		email = nil
	}

	u := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Email:        email,
		Role:         role,
		IsActive:     true,
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &DuplicateKeyError{Field: "username"}
		}
		if req.Email != nil && *req.Email != "" {
			if err := tx.Model(&models.User{}).Where("email = ?", *req.Email).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return &DuplicateKeyError{Field: "email"}
			}
		}
		if err := tx.Create(&u).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourceUser,
			ResourceID:   u.ID,
			ResourceName: u.Username,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := rbac.SyncUserRole(u.ID, u.Role); err != nil {
		return nil, fmt.Errorf("sync rbac role: %w", err)
	}
	return &u, nil
}

// Update applies the patch. A password change appears in the diff only
// as redacted placeholders; the hash never reaches the audit trail.
func (s *UserService) Update(actor audit.Actor, id uint, patch UserPatch, client audit.ClientMeta) (*models.User, error) {
	var u models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		changes := audit.Changes{}
		audit.Field(changes, "display_name", &u.DisplayName, patch.DisplayName)

		if patch.Email != nil {
			// An empty email clears the field rather than storing "".
			email := patch.Email
			if *email == "" {
				email = nil
			} else {
				var count int64
				if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", *email, id).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return &DuplicateKeyError{Field: "email"}
				}
			}
			audit.RefField(changes, "email", &u.Email, email, true)
		}

		if patch.Role != nil {
			if *patch.Role != models.RoleAdmin && *patch.Role != models.RoleUser {
				return &ValidationError{Message: "role must be admin or user"}
			}
			audit.Field(changes, "role", &u.Role, patch.Role)
		}
		audit.Field(changes, "is_active", &u.IsActive, patch.IsActive)

		if patch.Password != nil && *patch.Password != "" {
			hash, err := auth.HashPassword(*patch.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
			audit.RedactedField(changes, "password")
		}

		if len(changes) == 0 {
			return nil
		}

		if err := tx.Save(&u).Error; err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceUser,
			ResourceID:   u.ID,
			ResourceName: u.Username,
			Changes:      changes,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := rbac.SyncUserRole(u.ID, u.Role); err != nil {
		return nil, fmt.Errorf("sync rbac role: %w", err)
	}
	return &u, nil
}

// Delete removes an account. Actors cannot delete themselves. Owned
// containers and services keep their owner_id; only the account row
// goes (audit rows keep the captured username).
func (s *UserService) Delete(actor audit.Actor, id uint, client audit.ClientMeta) error {
	if actor.ID == id {
		return &ConflictError{Message: "cannot delete your own account"}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionDelete,
			ResourceType: audit.ResourceUser,
			ResourceID:   u.ID,
			ResourceName: u.Username,
			Snapshot:     u, // PasswordHash is json:"-", so the hash stays out
			Client:       client,
		}); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.UserPreference{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return err
	}
	return rbac.RemoveUser(id)
}
