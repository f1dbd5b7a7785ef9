package services

import (
	"context"
	"database/sql"
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"community-service/internal/apperrors"
	"community-service/internal/logger"
	"community-service/internal/models"
	"community-service/internal/permissions"
)

// Notifier creates inbox notifications. Callers treat it as fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind models.NotificationType, title, body string, data map[string]any) error
}

// Authorizer is the advisory permission layer consulted before mutations.
type Authorizer interface {
	HasPermission(ctx context.Context, actorID string, perm permissions.Permission, resourceID string) permissions.Decision
	CanModifyResource(ctx context.Context, actorID string, resourceType permissions.ResourceType, resourceID, ownerID string) permissions.Decision
	CanManageGroupMembership(ctx context.Context, actorID, groupID, targetUserID string) permissions.Decision
	Invalidate(userID string)
}

func notify(ctx context.Context, n Notifier, userID string, kind models.NotificationType, title, body string, data map[string]any) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, userID, kind, title, body, data); err != nil {
		logger.Warn("failed to send notification", "type", kind, "user_id", userID, "error", err)
	}
}

func denied(d permissions.Decision) error {
	if d.HasPermission {
		return nil
	}
	return apperrors.Permission(d.Reason)
}

func notFoundAs(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(what)
	}
	return err
}

// sanitize strips markup and returns plain text; entities the policy escapes are decoded.
func sanitize(p *bluemonday.Policy, s string) string {
	return strings.TrimSpace(html.UnescapeString(p.Sanitize(s)))
}
