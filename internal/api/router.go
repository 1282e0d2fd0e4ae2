package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/api/handlers"
	"github.com/rackmind/rackmind/internal/api/middleware"
	"github.com/rackmind/rackmind/internal/auth"
	"github.com/rackmind/rackmind/internal/config"
	"gorm.io/gorm"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())

	authenticator := auth.NewBasicAuthenticator(db, cfg.Auth.JWTSecret)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", handlers.HealthCheck)
		public.POST("/auth/login", handlers.Login(authenticator))
	}

	dcHandler := handlers.NewDatacenterHandler(db)
	envHandler := handlers.NewEnvironmentHandler(db)
	serverHandler := handlers.NewServerHandler(db)
	containerHandler := handlers.NewContainerHandler(db)
	serviceHandler := handlers.NewServiceHandler(db)
	gpuHandler := handlers.NewGPUHandler(db)
	auditHandler := handlers.NewAuditHandler(db)
	searchHandler := handlers.NewSearchHandler(db)
	userHandler := handlers.NewUserHandler(db)
	prefHandler := handlers.NewPreferenceHandler(db)

	// Protected routes (require authentication)
	protected := router.Group("/api/v1")
	protected.Use(authenticator.Middleware())
	{
		protected.GET("/auth/me", handlers.GetCurrentUser(authenticator))

		// Datacenter endpoints (mutations are admin-only, below)
		protected.GET("/datacenters", dcHandler.List)
		protected.GET("/datacenters/overview", dcHandler.Overview)
		protected.GET("/datacenters/:id", dcHandler.Get)

		// Environment endpoints (read-only catalog)
		protected.GET("/environments", envHandler.List)
		protected.GET("/environments/:id", envHandler.Get)

		// Server endpoints (mutations are admin-only, below)
		protected.GET("/servers", serverHandler.List)
		protected.GET("/servers/tree", serverHandler.Tree)
		protected.GET("/servers/:id", serverHandler.Get)

		// Container endpoints
		protected.GET("/containers", containerHandler.List)
		protected.GET("/containers/:id", containerHandler.Get)

		// Service endpoints
		protected.GET("/services", serviceHandler.List)
		protected.GET("/services/:id", serviceHandler.Get)

		// GPU endpoints (mutations are admin-only, below)
		protected.GET("/gpus", gpuHandler.List)
		protected.GET("/gpus/:id", gpuHandler.Get)

		// Container and service writes need the resources/write grant.
		// Ownership checks happen in the service layer.
		writer := protected.Group("")
		writer.Use(middleware.RequireResourceWrite())
		{
			writer.POST("/containers", containerHandler.Create)
			writer.PUT("/containers/:id", containerHandler.Update)
			writer.DELETE("/containers/:id", containerHandler.Delete)
			writer.POST("/containers/batch-delete", containerHandler.BatchDelete)
			writer.PUT("/containers/sort-order", containerHandler.UpdateSortOrder)
			writer.POST("/containers/:id/port-mappings", containerHandler.AddPortMapping)
			writer.PUT("/port-mappings/:mapping_id", containerHandler.UpdatePortMapping)
			writer.DELETE("/port-mappings/:mapping_id", containerHandler.DeletePortMapping)

			writer.POST("/services", serviceHandler.Create)
			writer.PUT("/services/:id", serviceHandler.Update)
			writer.DELETE("/services/:id", serviceHandler.Delete)
		}

		// Preference endpoints (per-account, no role gate)
		protected.GET("/preferences", prefHandler.Get)
		protected.PUT("/preferences", prefHandler.Update)

		// Search endpoints
		protected.GET("/search", searchHandler.Search)
		protected.GET("/search/quick", searchHandler.QuickSearch)

		// User options are available to everyone for assignment pickers
		protected.GET("/users/options", userHandler.Options)

		// Admin endpoints
		admin := protected.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.POST("/datacenters", dcHandler.Create)
			admin.PUT("/datacenters/:id", dcHandler.Update)
			admin.DELETE("/datacenters/:id", dcHandler.Delete)

			admin.POST("/servers", serverHandler.Create)
			admin.PUT("/servers/:id", serverHandler.Update)
			admin.PUT("/servers/batch", serverHandler.BatchUpdate)
			admin.DELETE("/servers/:id", serverHandler.Delete)

			admin.POST("/gpus", gpuHandler.Create)
			admin.PUT("/gpus/:id", gpuHandler.Update)
			admin.POST("/gpus/:id/assign", gpuHandler.Assign)
			admin.POST("/gpus/:id/release", gpuHandler.Release)
			admin.DELETE("/gpus/:id", gpuHandler.Delete)

			admin.GET("/users", userHandler.List)
			admin.GET("/users/:id", userHandler.Get)
			admin.POST("/users", userHandler.Create)
			admin.PUT("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)

			admin.GET("/audit-logs", auditHandler.List)
			admin.GET("/audit-logs/export", auditHandler.Export)
			admin.GET("/audit-logs/:id", auditHandler.Get)
		}
	}

	slog.Info("API router initialized", "mode", cfg.Server.Mode)
	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		slog.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"ip", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
