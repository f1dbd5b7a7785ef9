package handlers

import (
	"context"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"community-service/internal/models"
	"community-service/internal/services"
	"community-service/internal/telemetry"
)

type FriendHandler struct {
	friends *services.FriendshipService
	audit   *telemetry.AuditEmitter
}

func NewFriendHandler(friends *services.FriendshipService, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{friends: friends, audit: audit}
}

type transitionFunc func(ctx context.Context, actorID, otherUserID string) (models.FriendshipState, error)

func (h *FriendHandler) Status(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	otherID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	state, err := h.friends.Status(c.Request.Context(), otherID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, state)
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	h.transition(c, "friend.request", nethttp.StatusCreated, h.friends.SendRequest)
}

func (h *FriendHandler) Accept(c *gin.Context) {
	h.transition(c, "friend.accept", nethttp.StatusOK, h.friends.Accept)
}

func (h *FriendHandler) AcceptRejected(c *gin.Context) {
	h.transition(c, "friend.accept_rejected", nethttp.StatusOK, h.friends.AcceptRejected)
}

func (h *FriendHandler) Reject(c *gin.Context) {
	h.transition(c, "friend.reject", nethttp.StatusOK, h.friends.Reject)
}

func (h *FriendHandler) Cancel(c *gin.Context) {
	h.transition(c, "friend.cancel", nethttp.StatusOK, h.friends.Cancel)
}

func (h *FriendHandler) Block(c *gin.Context) {
	h.transition(c, "friend.block", nethttp.StatusOK, h.friends.Block)
}

func (h *FriendHandler) Remove(c *gin.Context) {
	h.transition(c, "friend.remove", nethttp.StatusOK, h.friends.Remove)
}

func (h *FriendHandler) transition(c *gin.Context, action string, okStatus int, fn transitionFunc) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	otherID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	state, err := fn(ctx, userID, otherID)
	emitAction(ctx, h.audit, c, action, otherID, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(okStatus, state)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	friends, err := h.friends.ListFriends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, friends)
}

func (h *FriendHandler) ListIncoming(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	requests, err := h.friends.ListIncoming(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, requests)
}
