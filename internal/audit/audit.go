package audit

import (
	"encoding/json"
	"fmt"

	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit actions
const (
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionBatchUpdate = "batch_update"
	ActionBatchDelete = "batch_delete"
)

// Resource types
const (
	ResourceDatacenter  = "datacenter"
	ResourceEnvironment = "environment"
	ResourceServer      = "server"
	ResourceContainer   = "container"
	ResourceService     = "service"
	ResourceGPU         = "gpu"
	ResourcePortMapping = "port_mapping"
	ResourceUser        = "user"
)

// SystemUsername is recorded when no authenticated principal is attached.
const SystemUsername = "system"

// maxUserAgentLen bounds the stored user-agent string.
const maxUserAgentLen = 256

// Actor identifies the authenticated principal performing a mutation.
// The username is captured into the log row so the record survives
// deletion of the user itself.
type Actor struct {
	ID       uint
	Username string
	Role     string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// ClientMeta carries request-layer client details into audit writes.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// Entry describes one audit record to be written. Exactly one of
// Changes (update-class actions) or Snapshot (delete-class actions)
// is normally set; create actions carry neither.
type Entry struct {
	Actor        *Actor
	Action       string
	ResourceType string
	ResourceID   uint
	ResourceName string
	Changes      Changes
	Snapshot     any
	Client       ClientMeta
}

// Record writes an audit log row on the given handle. Callers pass the
// transaction of the mutation being described so both commit or roll
// back together; a failed audit write therefore fails the mutation.
func Record(tx *gorm.DB, e Entry) error {
	row := models.AuditLog{
		Username:     SystemUsername,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		ResourceName: e.ResourceName,
		IPAddress:    e.Client.IPAddress,
		UserAgent:    truncate(e.Client.UserAgent, maxUserAgentLen),
	}
	if e.Actor != nil {
		id := e.Actor.ID
		row.UserID = &id
		row.Username = e.Actor.Username
	}

	if len(e.Changes) > 0 {
		raw, err := json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
		row.Changes = datatypes.JSON(raw)
	}
	if e.Snapshot != nil {
		raw, err := json.Marshal(e.Snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		row.Snapshot = datatypes.JSON(raw)
	}

	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
