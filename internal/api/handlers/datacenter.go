package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/service"
	"gorm.io/gorm"
)

// DatacenterHandler serves datacenter endpoints.
type DatacenterHandler struct {
	svc *service.DatacenterService
}

// NewDatacenterHandler creates a new DatacenterHandler.
func NewDatacenterHandler(db *gorm.DB) *DatacenterHandler {
	return &DatacenterHandler{svc: service.NewDatacenterService(db)}
}

// List returns all active datacenters.
func (h *DatacenterHandler) List(c *gin.Context) {
	dcs, err := h.svc.List()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dcs)
}

// Overview returns per-datacenter resource counts.
func (h *DatacenterHandler) Overview(c *gin.Context) {
	stats, err := h.svc.Overview()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Get returns one datacenter by id.
func (h *DatacenterHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	dc, err := h.svc.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dc)
}

type datacenterCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Create registers a new datacenter.
func (h *DatacenterHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req datacenterCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	dc, err := h.svc.Create(actor, service.CreateDatacenterRequest{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
	}, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dc)
}

type datacenterUpdateRequest struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// Update applies a partial update to a datacenter.
func (h *DatacenterHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req datacenterUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	dc, err := h.svc.Update(actor, id, service.DatacenterPatch{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		IsActive:    req.IsActive,
	}, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dc)
}

// Delete removes a datacenter. Fails with 409 when servers still
// reference it.
func (h *DatacenterHandler) Delete(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"message": "datacenter deleted"})
}
