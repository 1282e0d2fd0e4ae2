package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/models"
	"github.com/rackmind/rackmind/internal/service"
	"gorm.io/gorm"
)

// ServerHandler serves server endpoints, including the resource tree.
type ServerHandler struct {
	svc  *service.ServerService
	tree *service.TreeService
}

// NewServerHandler creates a new ServerHandler.
func NewServerHandler(db *gorm.DB) *ServerHandler {
	return &ServerHandler{
		svc:  service.NewServerService(db),
		tree: service.NewTreeService(db),
	}
}

// List returns a filtered, paginated server listing.
func (h *ServerHandler) List(c *gin.Context) {
	filter := service.ServerFilter{
		DatacenterID:  queryUint(c, "datacenter_id"),
		EnvironmentID: queryUint(c, "environment_id"),
		Status:        c.Query("status"),
		Keyword:       c.Query("keyword"),
	}

	servers, info, err := h.svc.List(filter, pageParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(servers, info))
}

// Tree returns the server-rooted resource hierarchy.
func (h *ServerHandler) Tree(c *gin.Context) {
	level, err := strconv.Atoi(c.DefaultQuery("expand_level", "2"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expand_level"})
		return
	}

	filter := service.TreeFilter{
		DatacenterID:  queryUint(c, "datacenter_id"),
		EnvironmentID: queryUint(c, "environment_id"),
	}

	nodes, err := h.tree.BuildTree(filter, level)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

// Get returns one server with its related resources.
func (h *ServerHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	srv, err := h.svc.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, srv)
}

type serverCreateRequest struct {
	Name              string `json:"name" binding:"required"`
	DatacenterID      uint   `json:"datacenter_id" binding:"required"`
	EnvironmentID     uint   `json:"environment_id" binding:"required"`
	InternalIP        string `json:"internal_ip" binding:"required"`
	ExternalIP        string `json:"external_ip"`
	CPUCores          int    `json:"cpu_cores"`
	MemoryGB          int    `json:"memory_gb"`
	DiskGB            int    `json:"disk_gb"`
	OSType            string `json:"os_type"`
	Status            string `json:"status"`
	ResponsiblePerson string `json:"responsible_person"`
	Description       string `json:"description"`
	SSHPort           int    `json:"ssh_port"`
	SSHUser           string `json:"ssh_user"`
}

// Create registers a new server.
func (h *ServerHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req serverCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	srv, err := h.svc.Create(actor, service.CreateServerRequest{
		Name:              req.Name,
		DatacenterID:      req.DatacenterID,
		EnvironmentID:     req.EnvironmentID,
		InternalIP:        req.InternalIP,
		ExternalIP:        req.ExternalIP,
		CPUCores:          req.CPUCores,
		MemoryGB:          req.MemoryGB,
		DiskGB:            req.DiskGB,
		OSType:            req.OSType,
		Status:            models.ServerStatus(req.Status),
		ResponsiblePerson: req.ResponsiblePerson,
		Description:       req.Description,
		SSHPort:           req.SSHPort,
		SSHUser:           req.SSHUser,
	}, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, srv)
}

type serverUpdateRequest struct {
	Name              *string  `json:"name"`
	DatacenterID      *uint    `json:"datacenter_id"`
	EnvironmentID     *uint    `json:"environment_id"`
	InternalIP        *string  `json:"internal_ip"`
	ExternalIP        *string  `json:"external_ip"`
	CPUCores          *int     `json:"cpu_cores"`
	MemoryGB          *int     `json:"memory_gb"`
	DiskGB            *int     `json:"disk_gb"`
	OSType            *string  `json:"os_type"`
	CPUUsage          *float64 `json:"cpu_usage"`
	MemoryUsage       *float64 `json:"memory_usage"`
	DiskUsage         *float64 `json:"disk_usage"`
	Status            *string  `json:"status"`
	ResponsiblePerson *string  `json:"responsible_person"`
	Description       *string  `json:"description"`
	SSHPort           *int     `json:"ssh_port"`
	SSHUser           *string  `json:"ssh_user"`
}

func (r serverUpdateRequest) patch() service.ServerPatch {
	p := service.ServerPatch{
		Name:              r.Name,
		DatacenterID:      r.DatacenterID,
		EnvironmentID:     r.EnvironmentID,
		InternalIP:        r.InternalIP,
		ExternalIP:        r.ExternalIP,
		CPUCores:          r.CPUCores,
		MemoryGB:          r.MemoryGB,
		DiskGB:            r.DiskGB,
		OSType:            r.OSType,
		CPUUsage:          r.CPUUsage,
		MemoryUsage:       r.MemoryUsage,
		DiskUsage:         r.DiskUsage,
		ResponsiblePerson: r.ResponsiblePerson,
		Description:       r.Description,
		SSHPort:           r.SSHPort,
		SSHUser:           r.SSHUser,
	}
	if r.Status != nil {
		status := models.ServerStatus(*r.Status)
		p.Status = &status
	}
	return p
}

// Update applies a partial update to a server.
func (h *ServerHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req serverUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	srv, err := h.svc.Update(actor, id, req.patch(), clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, srv)
}

type serverBatchUpdateRequest struct {
	IDs    []uint              `json:"ids" binding:"required,min=1"`
	Update serverUpdateRequest `json:"update"`
}

// BatchUpdate applies the same patch to multiple servers. Per-id
// failures do not abort the rest of the batch.
func (h *ServerHandler) BatchUpdate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req serverBatchUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.BatchUpdate(actor, req.IDs, req.Update.patch(), clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete removes a server and everything hosted on it.
func (h *ServerHandler) Delete(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"message": "server deleted"})
}
