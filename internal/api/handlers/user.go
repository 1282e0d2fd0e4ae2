package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rackmind/rackmind/internal/service"
	"gorm.io/gorm"
)

// UserHandler serves user management endpoints.
type UserHandler struct {
	svc *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{svc: service.NewUserService(db)}
}

// List returns a filtered, paginated user listing.
func (h *UserHandler) List(c *gin.Context) {
	filter := service.UserFilter{
		Role:     c.Query("role"),
		IsActive: queryBool(c, "is_active"),
		Keyword:  c.Query("keyword"),
	}

	users, info, err := h.svc.List(filter, pageParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(users, info))
}

// Options returns the active users as assignment choices.
func (h *UserHandler) Options(c *gin.Context) {
	options, err := h.svc.Options()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

// Get returns one user by id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.svc.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type userCreateRequest struct {
	Username    string  `json:"username" binding:"required"`
	Password    string  `json:"password" binding:"required,min=6"`
	DisplayName string  `json:"display_name"`
	Email       *string `json:"email"`
	Role        string  `json:"role"`
	IsActive    *bool   `json:"is_active"`
}

// Create registers a new user account.
func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req userCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.svc.Create(actor, service.CreateUserRequest{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        req.Role,
		IsActive:    req.IsActive,
	}, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type userUpdateRequest struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"is_active"`
	Password    *string `json:"password"`
}

// Update applies a partial update to a user account.
func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req userUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.svc.Update(actor, id, service.UserPatch{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        req.Role,
		IsActive:    req.IsActive,
		Password:    req.Password,
	}, clientMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete removes a user account. Self-deletion is rejected.
func (h *UserHandler) Delete(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
