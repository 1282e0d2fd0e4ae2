package models

import "time"

// GPUStatus represents the allocation state of a GPU card
type GPUStatus string

const (
	GPUStatusFree  GPUStatus = "free"
	GPUStatusInUse GPUStatus = "in_use"
	GPUStatusError GPUStatus = "error"
)

// GPU represents a GPU card installed in a server
type GPU struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	ServerID     uint    `gorm:"not null;index" json:"server_id"`
	Server       *Server `gorm:"foreignKey:ServerID" json:"server,omitempty"`
	AssignedTo   *uint   `gorm:"index" json:"assigned_to"`
	AssignedUser *User   `gorm:"foreignKey:AssignedTo" json:"assigned_user,omitempty"`

	Model    string `gorm:"size:64;not null" json:"model"` // e.g. NVIDIA A100
	MemoryGB int    `gorm:"not null" json:"memory_gb"`
	Index    int    `gorm:"column:card_index;default:0" json:"index"` // position among cards on the same server; "index" is reserved in several dialects

	// Usage gauges, pushed from outside
	GPUUsage    float64 `gorm:"default:0" json:"gpu_usage"`
	MemoryUsage float64 `gorm:"default:0" json:"memory_usage"`

	Status      GPUStatus `gorm:"size:20;default:'free'" json:"status"`
	Description string    `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAvailable reports whether the card can be handed out: free and
// unassigned always change together (see GPUService.Assign/Release).
func (g *GPU) IsAvailable() bool {
	return g.Status == GPUStatusFree && g.AssignedTo == nil
}
