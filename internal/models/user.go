package models

import "time"

// Role constants for User.Role
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a system user
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:256;not null" json:"-"`
	DisplayName  string    `gorm:"size:64;not null" json:"display_name"`
	Email        *string   `gorm:"size:120;uniqueIndex" json:"email"`
	Role         string    `gorm:"size:20;not null;default:'user'" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
