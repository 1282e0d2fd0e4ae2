package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/auth"
	"github.com/rackmind/rackmind/internal/models"
	"github.com/rackmind/rackmind/internal/service"
)

// HealthCheck reports service liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleServiceError maps service-layer errors to HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		conflictErr   *service.ConflictError
		duplicateErr  *service.DuplicateKeyError
		permErr       *service.PermissionDeniedError
	)

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusConflict, gin.H{"error": duplicateErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Message})
	case errors.As(err, &permErr):
		c.JSON(http.StatusForbidden, gin.H{"error": permErr.Message})
	default:
		slog.Error("Service error", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// currentActor resolves the authenticated user into an audit actor.
func currentActor(c *gin.Context) (audit.Actor, bool) {
	value, exists := c.Get(auth.UserContextKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return audit.Actor{}, false
	}
	user, ok := value.(*models.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return audit.Actor{}, false
	}
	return audit.Actor{ID: user.ID, Username: user.Username, Role: user.Role}, true
}

// clientMeta extracts the caller's address and user agent for auditing.
func clientMeta(c *gin.Context) audit.ClientMeta {
	return audit.ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// pathID parses the numeric :id path parameter.
func pathID(c *gin.Context) (uint, bool) {
	return pathUint(c, "id")
}

func pathUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// pageParams reads page and page_size query parameters. Out-of-range
// values are clamped downstream, not rejected.
func pageParams(c *gin.Context) service.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return service.Page{Page: page, PageSize: pageSize}
}

// queryUint reads an optional numeric query parameter.
func queryUint(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}

// queryBool reads an optional boolean query parameter.
func queryBool(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// queryTime reads an optional RFC 3339 timestamp query parameter.
func queryTime(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// listResponse is the envelope for paginated collections.
func listResponse(items any, info service.PageInfo) gin.H {
	return gin.H{
		"items":     items,
		"page":      info.Page,
		"page_size": info.PageSize,
		"total":     info.Total,
	}
}
