package handlers

import (
	"net/http"
	"strconv"

	"github.com/brightboard/brightboard-server/src/services"
	"github.com/gin-gonic/gin"
)

// LogHandler exposes the audit trail
type LogHandler struct {
	auditService *services.AuditService
}

// NewLogHandler creates a new log handler
func NewLogHandler(auditService *services.AuditService) *LogHandler {
	return &LogHandler{auditService: auditService}
}

// HandleUserLogs returns one page of a user's audit trail
func (lh *LogHandler) HandleUserLogs(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, total, err := lh.auditService.ListForUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   entries,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
