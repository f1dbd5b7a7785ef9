package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"community-service/internal/services"
	"community-service/internal/telemetry"
)

type MembershipHandler struct {
	memberships *services.MembershipService
	referrals   *services.ReferralService
	audit       *telemetry.AuditEmitter
}

func NewMembershipHandler(memberships *services.MembershipService, referrals *services.ReferralService, audit *telemetry.AuditEmitter) *MembershipHandler {
	return &MembershipHandler{memberships: memberships, referrals: referrals, audit: audit}
}

func (h *MembershipHandler) Approve(c *gin.Context) {
	actorID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	m, err := h.memberships.ApproveRequest(ctx, actorID, id)
	emitAction(ctx, h.audit, c, "membership.approve", id, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, m)
}

type archiveBody struct {
	Reason string `json:"reason" binding:"required"`
	Note   string `json:"note"`
}

func (h *MembershipHandler) Archive(c *gin.Context) {
	actorID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var body archiveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	ctx := c.Request.Context()
	note, err := h.memberships.ArchiveRequest(ctx, actorID, id, body.Reason, body.Note)
	emitAction(ctx, h.audit, c, "membership.archive", id, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, note)
}

type journeyBody struct {
	Status int `json:"status" binding:"required"`
}

func (h *MembershipHandler) UpdateJourney(c *gin.Context) {
	actorID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var body journeyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	ctx := c.Request.Context()
	m, err := h.memberships.UpdateJourney(ctx, actorID, id, body.Status)
	emitAction(ctx, h.audit, c, "membership.journey", id, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, m)
}

type roleBody struct {
	Role string `json:"role" binding:"required"`
}

func (h *MembershipHandler) SetRole(c *gin.Context) {
	actorID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var body roleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	ctx := c.Request.Context()
	m, err := h.memberships.SetRole(ctx, actorID, id, body.Role)
	emitAction(ctx, h.audit, c, "membership.role", id, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, m)
}

func (h *MembershipHandler) CreateReferral(c *gin.Context) {
	actorID, ok := requireUser(c)
	if !ok {
		return
	}
	var body services.CreateReferralInput
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	ref, err := h.referrals.Create(ctx, actorID, body)
	emitAction(ctx, h.audit, c, "referral.create", body.ReferredID, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusCreated, ref)
}
