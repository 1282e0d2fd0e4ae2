package models

import "time"

// Datacenter represents a physical machine room / site
type Datacenter struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Location    string    `gorm:"size:128" json:"location"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Servers []Server `gorm:"foreignKey:DatacenterID" json:"servers,omitempty"`
}
