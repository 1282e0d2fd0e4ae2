package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/service"
	"gorm.io/gorm"
)

// PreferenceHandler serves the current user's navigation settings.
type PreferenceHandler struct {
	svc *service.PreferenceService
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(db *gorm.DB) *PreferenceHandler {
	return &PreferenceHandler{svc: service.NewPreferenceService(db)}
}

// Get returns the caller's settings, defaults included.
func (h *PreferenceHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	pref, err := h.svc.Get(actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}

type preferenceUpdateRequest struct {
	GroupingMode  *string `json:"grouping_mode"`
	ViewMode      *string `json:"view_mode"`
	PanelWidth    *int    `json:"panel_width"`
	ShowDetailBar *bool   `json:"show_detail_bar"`
}

// Update saves the caller's settings.
func (h *PreferenceHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req preferenceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pref, err := h.svc.Update(actor.ID, service.PreferencePatch{
		GroupingMode:  req.GroupingMode,
		ViewMode:      req.ViewMode,
		PanelWidth:    req.PanelWidth,
		ShowDetailBar: req.ShowDetailBar,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}
