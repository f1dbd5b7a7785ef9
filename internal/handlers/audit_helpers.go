package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"community-service/internal/telemetry"
)

func requestIDFromHeader(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	return requestID
}

// userIDFromContext returns the authenticated user id set by the JWT middleware, or "".
func userIDFromContext(c *gin.Context) string {
	return c.GetString("userID")
}

func emitAction(ctx context.Context, audit *telemetry.AuditEmitter, c *gin.Context, action, targetID string, err error) {
	if audit == nil {
		return
	}
	audit.EmitAction(ctx, requestIDFromHeader(c), userIDFromContext(c), action, targetID, err)
}
