package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/service"
	"gorm.io/gorm"
)

// EnvironmentHandler serves the read-only environment endpoints.
type EnvironmentHandler struct {
	svc *service.EnvironmentService
}

// NewEnvironmentHandler creates a new EnvironmentHandler.
func NewEnvironmentHandler(db *gorm.DB) *EnvironmentHandler {
	return &EnvironmentHandler{svc: service.NewEnvironmentService(db)}
}

// List returns all environments with their server counts.
func (h *EnvironmentHandler) List(c *gin.Context) {
	envs, err := h.svc.List()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, envs)
}

// Get returns one environment by id.
func (h *EnvironmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	env, err := h.svc.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, env)
}
