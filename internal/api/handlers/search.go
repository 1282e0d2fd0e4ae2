package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/service"
	"gorm.io/gorm"
)

// SearchHandler serves the global search endpoints.
type SearchHandler struct {
	svc *service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(db *gorm.DB) *SearchHandler {
	return &SearchHandler{svc: service.NewSearchService(db)}
}

// Search classifies the query and fans it out across entity types.
func (h *SearchHandler) Search(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword is required"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.svc.Search(keyword, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// QuickSearch returns lightweight autocomplete suggestions.
func (h *SearchHandler) QuickSearch(c *gin.Context) {
	keyword := c.Query("keyword")
	limit, _ := strconv.Atoi(c.Query("limit"))

	suggestions, err := h.svc.QuickSearch(keyword, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestions)
}
