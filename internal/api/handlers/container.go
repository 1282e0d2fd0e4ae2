package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/models"
	"github.com/rackmind/rackmind/internal/service"
	"gorm.io/gorm"
)

// ContainerHandler serves container and port-mapping endpoints.
type ContainerHandler struct {
	svc *service.ContainerService
}

// NewContainerHandler creates a new ContainerHandler.
func NewContainerHandler(db *gorm.DB) *ContainerHandler {
	return &ContainerHandler{svc: service.NewContainerService(db)}
}

// List returns a filtered, paginated container listing.
func (h *ContainerHandler) List(c *gin.Context) {
	filter := service.ContainerFilter{
		ServerID: queryUint(c, "server_id"),
		OwnerID:  queryUint(c, "owner_id"),
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
	}

	containers, info, err := h.svc.List(filter, pageParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(containers, info))
}

// Get returns one container with its mappings and services.
func (h *ContainerHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ct, err := h.svc.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

type containerCreateRequest struct {
	Name           string                     `json:"name" binding:"required"`
	ServerID       uint                       `json:"server_id" binding:"required"`
	AssignedUserID *uint                      `json:"assigned_user_id"`
	Purpose        string                     `json:"purpose"`
	Image          string                     `json:"image"`
	ExternalID     string                     `json:"external_id"`
	CPULimit       float64                    `json:"cpu_limit"`
	MemoryLimitMB  int                        `json:"memory_limit_mb"`
	Status         string                     `json:"status"`
	Description    string                     `json:"description"`
	PortMappings   []service.PortMappingInput `json:"port_mappings"`
}

// Create registers a new container, owned by the caller.
func (h *ContainerHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req containerCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ct, err := h.svc.Create(actor, service.CreateContainerRequest{
		Name:           req.Name,
		ServerID:       req.ServerID,
		AssignedUserID: req.AssignedUserID,
		Purpose:        req.Purpose,
		Image:          req.Image,
		ExternalID:     req.ExternalID,
		CPULimit:       req.CPULimit,
		MemoryLimitMB:  req.MemoryLimitMB,
		Status:         models.ContainerStatus(req.Status),
		Description:    req.Description,
		PortMappings:   req.PortMappings,
	}, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ct)
}

type containerUpdateRequest struct {
	Name              *string                    `json:"name"`
	Image             *string                    `json:"image"`
	ExternalID        *string                    `json:"external_id"`
	Purpose           *string                    `json:"purpose"`
	AssignedUserID    *uint                      `json:"assigned_user_id"`
	ClearAssignedUser bool                       `json:"clear_assigned_user"`
	CPULimit          *float64                   `json:"cpu_limit"`
	MemoryLimitMB     *int                       `json:"memory_limit_mb"`
	CPUUsage          *float64                   `json:"cpu_usage"`
	MemoryUsage       *float64                   `json:"memory_usage"`
	Status            *string                    `json:"status"`
	Description       *string                    `json:"description"`
	SortOrder         *int                       `json:"sort_order"`
	PortMappings      []service.PortMappingInput `json:"port_mappings"`
}

// Update applies a partial update. A present port_mappings array
// replaces the container's full mapping set.
func (h *ContainerHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req containerUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := service.ContainerPatch{
		Name:                req.Name,
		Image:               req.Image,
		ExternalID:          req.ExternalID,
		Purpose:             req.Purpose,
		AssignedUserID:      req.AssignedUserID,
		ClearAssignedUser:   req.ClearAssignedUser,
		CPULimit:            req.CPULimit,
		MemoryLimitMB:       req.MemoryLimitMB,
		CPUUsage:            req.CPUUsage,
		MemoryUsage:         req.MemoryUsage,
		Description:         req.Description,
		SortOrder:           req.SortOrder,
		PortMappings:        req.PortMappings,
		ReplacePortMappings: req.PortMappings != nil,
	}
	if req.Status != nil {
		status := models.ContainerStatus(*req.Status)
		patch.Status = &status
	}

	ct, err := h.svc.Update(actor, id, patch, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

// Delete removes a container and its mappings and services.
func (h *ContainerHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(actor, id, clientMeta(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "container deleted"})
}

type containerBatchDeleteRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// BatchDelete removes multiple containers with partial-success
// semantics.
func (h *ContainerHandler) BatchDelete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req containerBatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.BatchDelete(actor, req.IDs, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type sortOrderRequest struct {
	Items []service.SortOrderItem `json:"items" binding:"required,min=1"`
}

// UpdateSortOrder persists manual container ordering for the tree view.
func (h *ContainerHandler) UpdateSortOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req sortOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.UpdateSortOrder(actor, req.Items); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sort order updated"})
}

// AddPortMapping attaches one port mapping to a container.
func (h *ContainerHandler) AddPortMapping(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in service.PortMappingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pm, err := h.svc.AddPortMapping(actor, id, in, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pm)
}

type portMappingUpdateRequest struct {
	ContainerPort *int    `json:"container_port"`
	InternalIP    *string `json:"internal_ip"`
	InternalPort  *int    `json:"internal_port"`
	ExternalIP    *string `json:"external_ip"`
	ExternalPort  *int    `json:"external_port"`
	Protocol      *string `json:"protocol"`
	Description   *string `json:"description"`
}

// UpdatePortMapping patches one port mapping by its own id.
func (h *ContainerHandler) UpdatePortMapping(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathUint(c, "mapping_id")
	if !ok {
		return
	}

	var req portMappingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pm, err := h.svc.UpdatePortMapping(actor, id, service.PortMappingPatch{
		ContainerPort: req.ContainerPort,
		InternalIP:    req.InternalIP,
		InternalPort:  req.InternalPort,
		ExternalIP:    req.ExternalIP,
		ExternalPort:  req.ExternalPort,
		Protocol:      req.Protocol,
		Description:   req.Description,
	}, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pm)
}

// DeletePortMapping removes one port mapping by its own id.
func (h *ContainerHandler) DeletePortMapping(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathUint(c, "mapping_id")
	if !ok {
		return
	}

	if err := h.svc.DeletePortMapping(actor, id, clientMeta(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "port mapping deleted"})
}
