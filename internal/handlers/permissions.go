package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"community-service/internal/permissions"
)

const (
	checkHasPermission       = "has_permission"
	checkCanModifyResource   = "can_modify_resource"
	checkCanManageMembership = "can_manage_group_membership"
	checkCanAccessChurchData = "can_access_church_data"
)

type PermissionHandler struct {
	resolver *permissions.Resolver
}

func NewPermissionHandler(resolver *permissions.Resolver) *PermissionHandler {
	return &PermissionHandler{resolver: resolver}
}

type permissionCheckBody struct {
	Check        string `json:"check" binding:"required"`
	Permission   string `json:"permission"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	OwnerID      string `json:"owner_id"`
	GroupID      string `json:"group_id"`
	TargetUserID string `json:"target_user_id"`
	ChurchID     string `json:"church_id"`
}

// Check answers an advisory permission question for the caller. Denials are 200 responses
// with has_permission=false and a reason.
func (h *PermissionHandler) Check(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body permissionCheckBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	var decision permissions.Decision
	switch body.Check {
	case checkHasPermission:
		decision = h.resolver.HasPermission(ctx, userID, permissions.Permission(body.Permission), body.ResourceID)
	case checkCanModifyResource:
		rt := permissions.ResourceType(body.ResourceType)
		if !rt.Valid() || body.ResourceID == "" {
			c.JSON(nethttp.StatusBadRequest, gin.H{"error": "resource_type and resource_id are required"})
			return
		}
		decision = h.resolver.CanModifyResource(ctx, userID, rt, body.ResourceID, body.OwnerID)
	case checkCanManageMembership:
		if body.GroupID == "" {
			c.JSON(nethttp.StatusBadRequest, gin.H{"error": "group_id is required"})
			return
		}
		decision = h.resolver.CanManageGroupMembership(ctx, userID, body.GroupID, body.TargetUserID)
	case checkCanAccessChurchData:
		decision = h.resolver.CanAccessChurchData(ctx, userID, body.ChurchID)
	default:
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "unknown check"})
		return
	}
	c.JSON(nethttp.StatusOK, decision)
}
