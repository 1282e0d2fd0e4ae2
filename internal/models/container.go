package models

import "time"

// ContainerStatus represents the runtime state of a container
type ContainerStatus string

const (
	ContainerStatusRunning ContainerStatus = "running"
	ContainerStatusStopped ContainerStatus = "stopped"
	ContainerStatusError   ContainerStatus = "error"
)

// Container represents a container hosted on a server
type Container struct {
	ID       uint    `gorm:"primarykey" json:"id"`
	Name     string  `gorm:"size:64;index;not null" json:"name"`
	ServerID uint    `gorm:"not null;index" json:"server_id"`
	Server   *Server `gorm:"foreignKey:ServerID" json:"server,omitempty"`
	OwnerID  uint    `gorm:"not null;index" json:"owner_id"`
	Owner    *User   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	// Assignment and purpose
	AssignedUserID *uint  `gorm:"index" json:"assigned_user_id"`
	AssignedUser   *User  `gorm:"foreignKey:AssignedUserID" json:"assigned_user,omitempty"`
	Purpose        string `gorm:"size:200" json:"purpose"`

	Image      string `gorm:"size:256" json:"image"`
	ExternalID string `gorm:"size:64" json:"external_id"` // runtime-assigned container id

	// Resource limits
	CPULimit      float64 `json:"cpu_limit"`
	MemoryLimitMB int     `json:"memory_limit_mb"`

	// Usage gauges, pushed from outside
	CPUUsage    float64 `gorm:"default:0" json:"cpu_usage"`
	MemoryUsage float64 `gorm:"default:0" json:"memory_usage"`

	Status      ContainerStatus `gorm:"size:20;default:'running'" json:"status"`
	Description string          `gorm:"type:text" json:"description"`
	SortOrder   int             `gorm:"default:0" json:"sort_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PortMappings []PortMapping `gorm:"foreignKey:ContainerID;constraint:OnDelete:CASCADE" json:"port_mappings,omitempty"`
	Services     []Service     `gorm:"foreignKey:ContainerID;constraint:OnDelete:CASCADE" json:"services,omitempty"`
}
