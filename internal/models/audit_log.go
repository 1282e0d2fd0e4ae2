package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an immutable record of one mutation. Rows are written in
// the same transaction as the change they describe and are never
// updated or deleted by application code. Username and resource name
// are captured at write time so the record stays readable after the
// user or resource is gone.
type AuditLog struct {
	ID       uint  `gorm:"primarykey" json:"id"`
	UserID   *uint `gorm:"index" json:"user_id"`
	User     *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Username string `gorm:"size:64;not null" json:"username"`

	Action       string `gorm:"size:20;not null" json:"action"`        // create, update, delete, batch_update, batch_delete
	ResourceType string `gorm:"size:32;not null" json:"resource_type"` // server, container, service, gpu, ...
	ResourceID   uint   `gorm:"not null" json:"resource_id"`
	ResourceName string `gorm:"size:128" json:"resource_name"`

	Changes  datatypes.JSON `json:"changes,omitempty"`  // {"field": {"old": ..., "new": ...}}
	Snapshot datatypes.JSON `json:"snapshot,omitempty"` // full pre-delete state, children included

	IPAddress string `gorm:"size:45" json:"ip_address"`
	UserAgent string `gorm:"size:256" json:"user_agent,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
