package handlers

import (
	"errors"
	"net/http"

	"github.com/brightboard/brightboard-server/src/middleware"
	"github.com/brightboard/brightboard-server/src/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EditSessionHandler exposes the cooperative edit session API
type EditSessionHandler struct {
	sessionService *services.EditSessionService
	userService    *services.UserService
}

// NewEditSessionHandler creates a new edit session handler
func NewEditSessionHandler(sessionService *services.EditSessionService, userService *services.UserService) *EditSessionHandler {
	return &EditSessionHandler{
		sessionService: sessionService,
		userService:    userService,
	}
}

func targetUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}

// callerIdentity returns the authenticated admin's ID and display name.
func (eh *EditSessionHandler) callerIdentity(c *gin.Context) (uuid.UUID, string, bool) {
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, "", false
	}

	admin, err := eh.userService.Get(c.Request.Context(), adminID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown caller"})
		return uuid.Nil, "", false
	}
	return adminID, admin.FullName(), true
}

// HandleStartEdit acquires the edit session for a user
func (eh *EditSessionHandler) HandleStartEdit(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}
	adminID, adminName, ok := eh.callerIdentity(c)
	if !ok {
		return
	}

	result, err := eh.sessionService.Acquire(c.Request.Context(), userID, adminID, adminName)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start edit session"})
		return
	}

	if !result.HasPriority {
		c.JSON(http.StatusConflict, gin.H{
			"has_priority": false,
			"editor":       result.Editor,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleHeartbeat extends the caller's edit session
func (eh *EditSessionHandler) HandleHeartbeat(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}
	adminID, _, ok := eh.callerIdentity(c)
	if !ok {
		return
	}

	editor, err := eh.sessionService.Heartbeat(c.Request.Context(), userID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no edit session to extend"})
		case errors.Is(err, services.ErrSessionExpired):
			c.JSON(http.StatusGone, gin.H{"error": "edit session expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extend edit session"})
		}
		return
	}

	c.JSON(http.StatusOK, editor)
}

// HandleEditStatus reports who, if anyone, is editing the user
func (eh *EditSessionHandler) HandleEditStatus(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	status, err := eh.sessionService.Status(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read edit status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// HandleEndEdit releases the caller's edit session
func (eh *EditSessionHandler) HandleEndEdit(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}
	adminID, _, ok := eh.callerIdentity(c)
	if !ok {
		return
	}

	released, err := eh.sessionService.Release(c.Request.Context(), userID, adminID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end edit session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"released": released})
}
