package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AmyVerse/ayursutra-web-sub001/response"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

// receiver is the caller's AyurSutra ID. Notifications are addressed by it, so a session
// without one cannot read or change any.
func receiver(c *gin.Context) (string, error) {
	p, err := principal(c)
	if err != nil {
		return "", err
	}
	if p.AyursutraID == "" {
		return "", xerrors.ErrAyursutraIDMissing
	}
	return p.AyursutraID, nil
}

func (h *Handler) ListNotifications(c *gin.Context) {
	id, err := receiver(c)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	var q struct {
		Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
		Offset int `form:"offset" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Fail(c, h.Log, xerrors.Wrap(xerrors.KindInvalidInput, "Invalid pagination parameters", err))
		return
	}

	notifications, err := h.Notifications.List(c.Request.Context(), id, q.Limit, q.Offset)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"notifications": notifications})
}

func (h *Handler) UnreadNotificationCount(c *gin.Context) {
	id, err := receiver(c)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	count, err := h.Notifications.UnreadCount(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"unreadCount": count})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, err := receiver(c)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || notificationID == 0 {
		response.Fail(c, h.Log, xerrors.New(xerrors.KindInvalidInput, "Invalid notification id"))
		return
	}

	if err := h.Notifications.MarkRead(c.Request.Context(), id, uint(notificationID)); err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	id, err := receiver(c)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	updated, err := h.Notifications.MarkAllRead(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{
		"updatedCount": updated,
		"message":      fmt.Sprintf("Marked %d notifications as read", updated),
	})
}
