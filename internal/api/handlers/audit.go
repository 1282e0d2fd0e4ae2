package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/service"
	"gorm.io/gorm"
)

// AuditHandler serves the audit trail query endpoints.
type AuditHandler struct {
	svc *service.AuditQueryService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{svc: service.NewAuditQueryService(db)}
}

func auditFilter(c *gin.Context) service.AuditFilter {
	return service.AuditFilter{
		UserID:       queryUint(c, "user_id"),
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		StartTime:    queryTime(c, "start_time"),
		EndTime:      queryTime(c, "end_time"),
		Keyword:      c.Query("keyword"),
	}
}

// List returns paginated audit log summaries, newest first.
func (h *AuditHandler) List(c *gin.Context) {
	logs, info, err := h.svc.Query(auditFilter(c), pageParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(logs, info))
}

// Get returns one audit record with its full change payload.
func (h *AuditHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	log, err := h.svc.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

// Export returns full audit records matching the filter, capped at
// the export row limit.
func (h *AuditHandler) Export(c *gin.Context) {
	logs, err := h.svc.Export(auditFilter(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": logs,
		"count": len(logs),
	})
}
