package ginserver

import (
	"context"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
)

// NotificationCounters is the slice of the notification store the API needs.
type NotificationCounters interface {
	Unread(ctx context.Context, userID string) (int64, error)
	Reset(ctx context.Context, userID string) error
}

type NotificationHTTP interface {
	Unread(c *gin.Context)
	MarkRead(c *gin.Context)
}

type NotificationHandler struct {
	Counters NotificationCounters
	Logger   *slog.Logger
}

func (h NotificationHandler) Unread(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Counters == nil {
		c.JSON(http.StatusOK, gin.H{"unread": 0})
		return
	}
	count, err := h.Counters.Unread(c.Request.Context(), user.ID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("unread count lookup failed", "user_id", user.ID, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Counters == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.Counters.Reset(c.Request.Context(), user.ID); err != nil {
		if h.Logger != nil {
			h.Logger.Error("unread reset failed", "user_id", user.ID, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

var _ NotificationHTTP = NotificationHandler{}
