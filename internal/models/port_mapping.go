package models

import (
	"fmt"
	"time"
)

// PortMapping represents the three-tier address chain for one exposed
// container port: container port → internal ip:port → external ip:port.
type PortMapping struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	ContainerID uint       `gorm:"not null;index" json:"container_id"`
	Container   *Container `gorm:"foreignKey:ContainerID" json:"container,omitempty"`

	ContainerPort int    `gorm:"not null" json:"container_port"`
	InternalIP    string `gorm:"size:45" json:"internal_ip"` // falls back to the server's internal IP when empty
	InternalPort  int    `gorm:"not null" json:"internal_port"`
	ExternalIP    string `gorm:"size:45" json:"external_ip"`
	ExternalPort  int    `json:"external_port"`

	Protocol    string `gorm:"size:10;default:'tcp'" json:"protocol"` // tcp, udp
	Description string `gorm:"size:128" json:"description"`

	CreatedAt time.Time `json:"created_at"`
}

// InternalAddress returns "ip:port" using the mapping's own internal IP,
// or serverIP when none is set. With neither, the host part stays empty.
func (pm *PortMapping) InternalAddress(serverIP string) string {
	ip := pm.InternalIP
	if ip == "" {
		ip = serverIP
	}
	return fmt.Sprintf("%s:%d", ip, pm.InternalPort)
}

// ExternalAddress returns the external "ip:port" and true only when both
// parts are present. A partial pair never produces an address.
func (pm *PortMapping) ExternalAddress() (string, bool) {
	if pm.ExternalIP == "" || pm.ExternalPort == 0 {
		return "", false
	}
	return fmt.Sprintf("%s:%d", pm.ExternalIP, pm.ExternalPort), true
}

// MappingChain renders the human-readable chain. It is recomputed on
// every read because the parent server's internal IP can change.
func (pm *PortMapping) MappingChain(serverIP string) string {
	chain := fmt.Sprintf("%d → %s", pm.ContainerPort, pm.InternalAddress(serverIP))
	if ext, ok := pm.ExternalAddress(); ok {
		chain += " → " + ext
	}
	return chain
}
