package service

import "github.com/rackmind/rackmind/internal/models"

// Pagination defaults and bounds, applied to every list operation.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page holds raw pagination parameters from the request layer.
type Page struct {
	Page     int
	PageSize int
}

// Clamp normalizes the parameters: page ≥ 1, page size in [1, MaxPageSize].
func (p Page) Clamp() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) offset() int { return (p.Page - 1) * p.PageSize }

// PageInfo describes one page of a list response.
type PageInfo struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// BatchFailure reports why one id in a batch operation was skipped.
type BatchFailure struct {
	ID     uint   `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult reports per-id outcomes of a batch operation. Successful
// ids are committed even when others fail (partial-success semantics).
type BatchResult struct {
	Success      []uint         `json:"success"`
	Failed       []BatchFailure `json:"failed"`
	SuccessCount int            `json:"success_count"`
	FailedCount  int            `json:"failed_count"`
}

func (r *BatchResult) finalize() {
	if r.Success == nil {
		r.Success = []uint{}
	}
	if r.Failed == nil {
		r.Failed = []BatchFailure{}
	}
	r.SuccessCount = len(r.Success)
	r.FailedCount = len(r.Failed)
}

// CreateDatacenterRequest holds parameters for creating a datacenter.
type CreateDatacenterRequest struct {
	Name        string
	Location    string
	Description string
}

// DatacenterPatch is the set of optional fields a datacenter update may
// carry. nil means "not present in the request".
type DatacenterPatch struct {
	Name        *string
	Location    *string
	Description *string
	IsActive    *bool
}

// CreateServerRequest holds parameters for creating a server.
type CreateServerRequest struct {
	Name              string
	DatacenterID      uint
	EnvironmentID     uint
	InternalIP        string
	ExternalIP        string
	CPUCores          int
	MemoryGB          int
	DiskGB            int
	OSType            string
	Status            models.ServerStatus
	ResponsiblePerson string
	Description       string
	SSHPort           int
	SSHUser           string
}

// ServerPatch is the set of optional fields a server update may carry.
type ServerPatch struct {
	Name              *string
	DatacenterID      *uint
	EnvironmentID     *uint
	InternalIP        *string
	ExternalIP        *string
	CPUCores          *int
	MemoryGB          *int
	DiskGB            *int
	OSType            *string
	CPUUsage          *float64
	MemoryUsage       *float64
	DiskUsage         *float64
	Status            *models.ServerStatus
	ResponsiblePerson *string
	Description       *string
	SSHPort           *int
	SSHUser           *string
}

// ServerFilter narrows server listings.
type ServerFilter struct {
	DatacenterID  *uint
	EnvironmentID *uint
	Status        string
	Keyword       string
}

// PortMappingInput describes one port mapping supplied with a container
// create or replace request.
type PortMappingInput struct {
	ContainerPort int    `json:"container_port"`
	InternalIP    string `json:"internal_ip"`
	InternalPort  int    `json:"internal_port"`
	ExternalIP    string `json:"external_ip"`
	ExternalPort  int    `json:"external_port"`
	Protocol      string `json:"protocol"`
	Description   string `json:"description"`
}

// CreateContainerRequest holds parameters for creating a container.
// The owner is always the acting principal.
type CreateContainerRequest struct {
	Name           string
	ServerID       uint
	AssignedUserID *uint
	Purpose        string
	Image          string
	ExternalID     string
	CPULimit       float64
	MemoryLimitMB  int
	Status         models.ContainerStatus
	Description    string
	PortMappings   []PortMappingInput
}

// ContainerPatch is the set of optional fields a container update may
// carry. PortMappings, when non-nil, replaces the full mapping set.
type ContainerPatch struct {
	Name                *string
	Image               *string
	ExternalID          *string
	Purpose             *string
	AssignedUserID      *uint
	ClearAssignedUser   bool
	CPULimit            *float64
	MemoryLimitMB       *int
	CPUUsage            *float64
	MemoryUsage         *float64
	Status              *models.ContainerStatus
	Description         *string
	SortOrder           *int
	PortMappings        []PortMappingInput
	ReplacePortMappings bool
}

// PreferencePatch is the set of optional fields a preference save may
// carry.
type PreferencePatch struct {
	GroupingMode  *string
	ViewMode      *string
	PanelWidth    *int
	ShowDetailBar *bool
}

// PortMappingPatch is the set of optional fields a standalone port
// mapping update may carry.
type PortMappingPatch struct {
	ContainerPort *int
	InternalIP    *string
	InternalPort  *int
	ExternalIP    *string
	ExternalPort  *int
	Protocol      *string
	Description   *string
}

// ContainerFilter narrows container listings.
type ContainerFilter struct {
	ServerID *uint
	OwnerID  *uint
	Status   string
	Keyword  string
}

// SortOrderItem pairs an id with its new manual sort position.
type SortOrderItem struct {
	ID        uint `json:"id"`
	SortOrder int  `json:"sort_order"`
}

// CreateServiceRequest holds parameters for creating a service.
type CreateServiceRequest struct {
	Name           string
	ContainerID    uint
	ServiceType    string
	Port           int
	Version        string
	Status         models.ServiceStatus
	HealthCheckURL string
	Description    string
}

// ServicePatch is the set of optional fields a service update may carry.
type ServicePatch struct {
	Name           *string
	ServiceType    *string
	Port           *int
	Version        *string
	Status         *models.ServiceStatus
	HealthCheckURL *string
	Description    *string
	SortOrder      *int
}

// ServiceFilter narrows service listings.
type ServiceFilter struct {
	ContainerID *uint
	ServiceType string
	Status      string
	Keyword     string
}

// CreateGPURequest holds parameters for registering a GPU card.
type CreateGPURequest struct {
	ServerID    uint
	Model       string
	MemoryGB    int
	Index       int
	Status      models.GPUStatus
	Description string
}

// GPUPatch is the set of optional fields a GPU update may carry.
// Assignment changes go through Assign/Release, never through a patch.
type GPUPatch struct {
	Model       *string
	MemoryGB    *int
	Index       *int
	GPUUsage    *float64
	MemoryUsage *float64
	Status      *models.GPUStatus
	Description *string
}

// GPUFilter narrows GPU listings.
type GPUFilter struct {
	ServerID   *uint
	Status     string
	AssignedTo *uint
}

// CreateUserRequest holds parameters for creating a user account.
type CreateUserRequest struct {
	Username    string
	Password    string
	DisplayName string
	Email       *string
	Role        string
	IsActive    *bool
}

// UserPatch is the set of optional fields a user update may carry.
type UserPatch struct {
	DisplayName *string
	Email       *string
	Role        *string
	IsActive    *bool
	Password    *string
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role     string
	IsActive *bool
	Keyword  string
}
