package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/models"
	"github.com/rackmind/rackmind/internal/service"
	"gorm.io/gorm"
)

// GPUHandler serves GPU inventory and assignment endpoints.
type GPUHandler struct {
	svc *service.GPUService
}

// NewGPUHandler creates a new GPUHandler.
func NewGPUHandler(db *gorm.DB) *GPUHandler {
	return &GPUHandler{svc: service.NewGPUService(db)}
}

// List returns a filtered, paginated GPU listing.
func (h *GPUHandler) List(c *gin.Context) {
	filter := service.GPUFilter{
		ServerID:   queryUint(c, "server_id"),
		Status:     c.Query("status"),
		AssignedTo: queryUint(c, "assigned_to"),
	}

	gpus, info, err := h.svc.List(filter, pageParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(gpus, info))
}

// Get returns one GPU by id.
func (h *GPUHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	gpu, err := h.svc.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gpu)
}

type gpuCreateRequest struct {
	ServerID    uint   `json:"server_id" binding:"required"`
	Model       string `json:"model" binding:"required"`
	MemoryGB    int    `json:"memory_gb"`
	Index       int    `json:"index"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// Create registers a GPU card on a server.
func (h *GPUHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req gpuCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	gpu, err := h.svc.Create(actor, service.CreateGPURequest{
		ServerID:    req.ServerID,
		Model:       req.Model,
		MemoryGB:    req.MemoryGB,
		Index:       req.Index,
		Status:      models.GPUStatus(req.Status),
		Description: req.Description,
	}, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gpu)
}

type gpuUpdateRequest struct {
	Model       *string  `json:"model"`
	MemoryGB    *int     `json:"memory_gb"`
	Index       *int     `json:"index"`
	GPUUsage    *float64 `json:"gpu_usage"`
	MemoryUsage *float64 `json:"memory_usage"`
	Status      *string  `json:"status"`
	Description *string  `json:"description"`
}

// Update applies a partial update to a GPU's descriptive fields.
func (h *GPUHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req gpuUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := service.GPUPatch{
		Model:       req.Model,
		MemoryGB:    req.MemoryGB,
		Index:       req.Index,
		GPUUsage:    req.GPUUsage,
		MemoryUsage: req.MemoryUsage,
		Description: req.Description,
	}
	if req.Status != nil {
		status := models.GPUStatus(*req.Status)
		patch.Status = &status
	}

	gpu, err := h.svc.Update(actor, id, patch, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gpu)
}

type gpuAssignRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// Assign hands a free GPU to a user.
func (h *GPUHandler) Assign(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req gpuAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	gpu, err := h.svc.Assign(actor, id, req.UserID, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gpu)
}

// Release returns an assigned GPU to the free pool.
func (h *GPUHandler) Release(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	gpu, err := h.svc.Release(actor, id, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gpu)
}

// Delete removes a GPU record.
func (h *GPUHandler) Delete(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"message": "gpu deleted"})
}
