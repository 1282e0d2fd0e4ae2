package models

import "time"

// ServiceStatus represents the health state of a service
type ServiceStatus string

const (
	ServiceStatusHealthy   ServiceStatus = "healthy"
	ServiceStatusUnhealthy ServiceStatus = "unhealthy"
	ServiceStatusStopped   ServiceStatus = "stopped"
)

// Service represents an application process running inside a container
type Service struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Name        string     `gorm:"size:64;index;not null" json:"name"`
	ContainerID uint       `gorm:"not null;index" json:"container_id"`
	Container   *Container `gorm:"foreignKey:ContainerID" json:"container,omitempty"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	Owner       *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	ServiceType string `gorm:"size:32" json:"service_type"` // web, api, database, cache, queue, proxy, monitor, other
	Port        int    `json:"port"`
	Version     string `gorm:"size:32" json:"version"`

	Status         ServiceStatus `gorm:"size:20;default:'healthy'" json:"status"`
	HealthCheckURL string        `gorm:"size:256" json:"health_check_url"`
	Description    string        `gorm:"type:text" json:"description"`
	SortOrder      int           `gorm:"default:0" json:"sort_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
