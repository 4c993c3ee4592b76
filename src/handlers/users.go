package handlers

import (
	"errors"
	"net/http"

	"github.com/brightboard/brightboard-server/src/middleware"
	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles user management operations
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest represents the request body for admin user creation
type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// UpdateUserRequest represents the request body for a guarded update.
// UpdatedAt must echo the timestamp the client last read.
type UpdateUserRequest struct {
	FirstName            *string                      `json:"first_name"`
	LastName             *string                      `json:"last_name"`
	Email                *string                      `json:"email"`
	IsActive             *bool                        `json:"is_active"`
	NotificationSettings *models.NotificationSettings `json:"notification_settings"`
	UpdatedAt            string                       `json:"updated_at"`
}

// ChangeRoleRequest represents the request body for a role change
type ChangeRoleRequest struct {
	Role      string `json:"role"`
	UpdatedAt string `json:"updated_at"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func writeLeaseConflict(c *gin.Context, held *services.LeaseHeldError) {
	c.JSON(http.StatusConflict, gin.H{
		"error":       "user is being edited by another admin",
		"holder_id":   held.HolderID,
		"holder_name": held.HolderName,
		"expires_at":  held.ExpiresAt,
		"time_left":   held.TimeLeft,
	})
}

// HandleList returns all users
func (uh *UserHandler) HandleList(c *gin.Context) {
	users, err := uh.userService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// HandleSearch returns users matching a name or email query
func (uh *UserHandler) HandleSearch(c *gin.Context) {
	users, err := uh.userService.Search(c.Request.Context(), c.Query("q"), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// HandleGet returns one user
func (uh *UserHandler) HandleGet(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	user, err := uh.userService.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleCreate registers a user on behalf of an admin
func (uh *UserHandler) HandleCreate(c *gin.Context) {
	var req CreateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := uh.userService.Create(c.Request.Context(), adminID, services.UserCreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      models.Role(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters with a letter and a digit"})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		}
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (uh *UserHandler) applyUpdate(c *gin.Context, targetID uuid.UUID, in services.UserUpdateInput) {
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := uh.userService.Update(c.Request.Context(), targetID, adminID, in)
	if err != nil {
		var held *services.LeaseHeldError
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.As(err, &held):
			writeLeaseConflict(c, held)
		case errors.Is(err, services.ErrStaleWrite):
			c.JSON(http.StatusConflict, gin.H{"error": "user was modified by someone else, reload and retry"})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// HandleUpdate applies a guarded profile update
func (uh *UserHandler) HandleUpdate(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	uh.applyUpdate(c, userID, services.UserUpdateInput{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		IsActive:             req.IsActive,
		NotificationSettings: req.NotificationSettings,
		ExpectedUpdatedAt:    req.UpdatedAt,
	})
}

// HandleChangeRole changes a user's role through the same guarded path
func (uh *UserHandler) HandleChangeRole(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	role := models.Role(req.Role)
	if role != models.RoleUser && role != models.RoleModerator && role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	uh.applyUpdate(c, userID, services.UserUpdateInput{
		Role:              &role,
		ExpectedUpdatedAt: req.UpdatedAt,
	})
}

// HandleDelete removes a user
func (uh *UserHandler) HandleDelete(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	err := uh.userService.Delete(c.Request.Context(), userID, adminID)
	if err != nil {
		var held *services.LeaseHeldError
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.As(err, &held):
			writeLeaseConflict(c, held)
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "admin accounts cannot be deleted"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// HandleChangePassword changes the caller's own password
func (uh *UserHandler) HandleChangePassword(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req ChangePasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := uh.userService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "current and new password are required"})
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters with a letter and a digit"})
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is incorrect"})
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change password"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}
