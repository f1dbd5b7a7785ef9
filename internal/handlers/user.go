package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"community-service/internal/services"
	"community-service/internal/telemetry"
)

// SessionCloser drops live connections of a user.
type SessionCloser interface {
	Disconnect(userID string)
}

type UserHandler struct {
	users    *services.UserService
	sessions SessionCloser
	audit    *telemetry.AuditEmitter
}

func NewUserHandler(users *services.UserService, sessions SessionCloser, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{users: users, sessions: sessions, audit: audit}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.users.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, user)
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	err := h.users.DeleteAccount(ctx, userID)
	emitAction(ctx, h.audit, c, "user.delete", userID, err)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.sessions != nil {
		h.sessions.Disconnect(userID)
	}
	c.Status(nethttp.StatusNoContent)
}

type setRolesBody struct {
	Roles []string `json:"roles" binding:"required"`
}

func (h *UserHandler) SetRoles(c *gin.Context) {
	actorID, ok := requireUser(c)
	if !ok {
		return
	}
	targetID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var body setRolesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.SetRoles(ctx, actorID, targetID, body.Roles)
	emitAction(ctx, h.audit, c, "user.set_roles", targetID, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, user)
}
