package models

import "time"

// Environment represents a deployment environment (prod, staging, ...)
type Environment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"size:32;uniqueIndex;not null" json:"name"`
	Code      string    `gorm:"size:16;uniqueIndex;not null" json:"code"` // prod, staging, test, dev
	Color     string    `gorm:"size:16;not null;default:'#909399'" json:"color"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`

	Servers []Server `gorm:"foreignKey:EnvironmentID" json:"servers,omitempty"`
}

// DefaultEnvironments is the fixed seed set created once at bootstrap.
// Lookup is by code, so re-running migrations never duplicates them.
func DefaultEnvironments() []Environment {
	return []Environment{
		{Name: "Production", Code: "prod", Color: "#F56C6C", SortOrder: 1},
		{Name: "Staging", Code: "staging", Color: "#E6A23C", SortOrder: 2},
		{Name: "Testing", Code: "test", Color: "#67C23A", SortOrder: 3},
		{Name: "Development", Code: "dev", Color: "#909399", SortOrder: 4},
	}
}
