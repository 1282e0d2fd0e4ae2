package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/models"
	"github.com/rackmind/rackmind/internal/service"
	"gorm.io/gorm"
)

// ServiceHandler serves endpoints for services running in containers.
type ServiceHandler struct {
	svc *service.ServiceCatalog
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{svc: service.NewServiceCatalog(db)}
}

// List returns a filtered, paginated service listing.
func (h *ServiceHandler) List(c *gin.Context) {
	filter := service.ServiceFilter{
		ContainerID: queryUint(c, "container_id"),
		ServiceType: c.Query("service_type"),
		Status:      c.Query("status"),
		Keyword:     c.Query("keyword"),
	}

	services, info, err := h.svc.List(filter, pageParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(services, info))
}

// Get returns one service by id.
func (h *ServiceHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	svc, err := h.svc.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

type serviceCreateRequest struct {
	Name           string `json:"name" binding:"required"`
	ContainerID    uint   `json:"container_id" binding:"required"`
	ServiceType    string `json:"service_type"`
	Port           int    `json:"port"`
	Version        string `json:"version"`
	Status         string `json:"status"`
	HealthCheckURL string `json:"health_check_url"`
	Description    string `json:"description"`
}

// Create registers a new service inside a container.
func (h *ServiceHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req serviceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	svc, err := h.svc.Create(actor, service.CreateServiceRequest{
		Name:           req.Name,
		ContainerID:    req.ContainerID,
		ServiceType:    req.ServiceType,
		Port:           req.Port,
		Version:        req.Version,
		Status:         models.ServiceStatus(req.Status),
		HealthCheckURL: req.HealthCheckURL,
		Description:    req.Description,
	}, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

type serviceUpdateRequest struct {
	Name           *string `json:"name"`
	ServiceType    *string `json:"service_type"`
	Port           *int    `json:"port"`
	Version        *string `json:"version"`
	Status         *string `json:"status"`
	HealthCheckURL *string `json:"health_check_url"`
	Description    *string `json:"description"`
	SortOrder      *int    `json:"sort_order"`
}

// Update applies a partial update to a service.
func (h *ServiceHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req serviceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := service.ServicePatch{
		Name:           req.Name,
		ServiceType:    req.ServiceType,
		Port:           req.Port,
		Version:        req.Version,
		HealthCheckURL: req.HealthCheckURL,
		Description:    req.Description,
		SortOrder:      req.SortOrder,
	}
	if req.Status != nil {
		status := models.ServiceStatus(*req.Status)
		patch.Status = &status
	}

	svc, err := h.svc.Update(actor, id, patch, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// Delete removes a service.
func (h *ServiceHandler) Delete(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"message": "service deleted"})
}
