package handlers

import (
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"community-service/internal/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.notifications.List(c.Request.Context(), userID, unreadOnly, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, items)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(nethttp.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"updated": updated})
}
