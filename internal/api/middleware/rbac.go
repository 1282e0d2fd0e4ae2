package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/auth"
	"github.com/rackmind/rackmind/internal/models"
	"github.com/rackmind/rackmind/internal/rbac"
)

// RequireAdmin ensures the authenticated user holds the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(auth.UserContextKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, ok := value.(*models.User)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		isAdmin, err := rbac.IsAdmin(user.ID)
		if err != nil || !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}

// RequireResourceWrite ensures the authenticated user holds the
// resources/write grant. Subjects without a role binding are refused.
func RequireResourceWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(auth.UserContextKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, ok := value.(*models.User)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		allowed, err := rbac.CanWriteResources(user.ID)
		if err != nil || !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "write access required"})
			return
		}

		c.Next()
	}
}
