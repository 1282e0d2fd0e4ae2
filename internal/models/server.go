package models

import (
	"fmt"
	"time"
)

// ServerStatus represents the operational state of a server
type ServerStatus string

const (
	ServerStatusOnline      ServerStatus = "online"
	ServerStatusOffline     ServerStatus = "offline"
	ServerStatusMaintenance ServerStatus = "maintenance"
)

// Server represents a physical or virtual host in a datacenter
type Server struct {
	ID            uint `gorm:"primarykey" json:"id"`
	Name          string `gorm:"size:64;index;not null" json:"name"`
	DatacenterID  uint `gorm:"not null;index" json:"datacenter_id"`
	Datacenter    *Datacenter `gorm:"foreignKey:DatacenterID" json:"datacenter,omitempty"`
	EnvironmentID uint `gorm:"not null;index" json:"environment_id"`
	Environment   *Environment `gorm:"foreignKey:EnvironmentID" json:"environment,omitempty"`

	// Network
	InternalIP string `gorm:"size:45;index;not null" json:"internal_ip"`
	ExternalIP string `gorm:"size:45" json:"external_ip"`

	// Hardware
	CPUCores int    `json:"cpu_cores"`
	MemoryGB int    `json:"memory_gb"`
	DiskGB   int    `json:"disk_gb"`
	OSType   string `gorm:"size:64" json:"os_type"`

	// Usage gauges, pushed from outside and overwritten on update
	CPUUsage    float64 `gorm:"default:0" json:"cpu_usage"`
	MemoryUsage float64 `gorm:"default:0" json:"memory_usage"`
	DiskUsage   float64 `gorm:"default:0" json:"disk_usage"`

	Status            ServerStatus `gorm:"size:20;default:'online'" json:"status"`
	ResponsiblePerson string       `gorm:"size:64" json:"responsible_person"`
	Description       string       `gorm:"type:text" json:"description"`

	// SSH access
	SSHPort int    `gorm:"default:22" json:"ssh_port"`
	SSHUser string `gorm:"size:32;default:'root'" json:"ssh_user"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Containers []Container `gorm:"foreignKey:ServerID;constraint:OnDelete:CASCADE" json:"containers,omitempty"`
	GPUs       []GPU       `gorm:"foreignKey:ServerID;constraint:OnDelete:CASCADE" json:"gpus,omitempty"`
}

// SSHCommand returns the convenience command line for reaching the server.
func (s *Server) SSHCommand() string {
	return fmt.Sprintf("ssh -p %d %s@%s", s.SSHPort, s.SSHUser, s.InternalIP)
}
