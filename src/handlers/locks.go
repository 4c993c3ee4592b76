package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/brightboard/brightboard-server/src/middleware"
	"github.com/brightboard/brightboard-server/src/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LockHandler exposes administrative account locking
type LockHandler struct {
	lockService *services.LockService
	userService *services.UserService
}

// NewLockHandler creates a new lock handler
func NewLockHandler(lockService *services.LockService, userService *services.UserService) *LockHandler {
	return &LockHandler{
		lockService: lockService,
		userService: userService,
	}
}

// LockRequest represents the request body for locking an account.
// DurationMinutes of zero or absent means the lock is permanent.
type LockRequest struct {
	Reason          string `json:"reason"`
	DurationMinutes int    `json:"duration_minutes"`
}

// UnlockRequest represents the request body for unlocking an account
type UnlockRequest struct {
	Reason string `json:"reason"`
}

func (lh *LockHandler) callerIdentity(c *gin.Context) (uuid.UUID, string, bool) {
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, "", false
	}

	admin, err := lh.userService.Get(c.Request.Context(), adminID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown caller"})
		return uuid.Nil, "", false
	}
	return adminID, admin.FullName(), true
}

// HandleLock applies an administrative lock
func (lh *LockHandler) HandleLock(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}
	adminID, adminName, ok := lh.callerIdentity(c)
	if !ok {
		return
	}

	var req LockRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var duration *time.Duration
	if req.DurationMinutes > 0 {
		d := time.Duration(req.DurationMinutes) * time.Minute
		duration = &d
	}

	user, err := lh.lockService.Lock(c.Request.Context(), userID, adminID, adminName, req.Reason, duration)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfLock):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot lock your own account"})
		case errors.Is(err, services.ErrAdminTarget):
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot lock an admin account"})
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to lock account"})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// HandleUnlock clears every lock on an account
func (lh *LockHandler) HandleUnlock(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}
	adminID, adminName, ok := lh.callerIdentity(c)
	if !ok {
		return
	}

	var req UnlockRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := lh.lockService.Unlock(c.Request.Context(), userID, adminID, adminName, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, services.ErrNotLocked):
			c.JSON(http.StatusBadRequest, gin.H{"error": "account is not locked"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unlock account"})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// HandleLockStatus reports the combined lock state of an account
func (lh *LockHandler) HandleLockStatus(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	status, err := lh.lockService.Status(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read lock status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// HandleLockHistory returns the append-only lock history
func (lh *LockHandler) HandleLockHistory(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	user, err := lh.userService.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": user.LockHistory,
		"count":   len(user.LockHistory),
	})
}
