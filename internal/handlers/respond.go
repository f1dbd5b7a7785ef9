package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"community-service/internal/apperrors"
	"community-service/internal/logger"
)

const networkMessage = "unable to reach the server, please check your connection and try again"

// respondError writes the classified error. Silent errors produce an empty 204.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.Classify(err)
	if appErr == nil {
		c.Status(nethttp.StatusNoContent)
		return
	}
	if appErr.Silent {
		logger.Debug("suppressed error", "path", c.FullPath(), "error", err)
		c.Status(nethttp.StatusNoContent)
		return
	}

	status := nethttp.StatusInternalServerError
	message := appErr.Message
	switch appErr.Kind {
	case apperrors.KindPermission:
		status = nethttp.StatusForbidden
	case apperrors.KindAuth:
		status = nethttp.StatusUnauthorized
	case apperrors.KindValidation:
		switch appErr.Code {
		case apperrors.CodeNotFound:
			status = nethttp.StatusNotFound
		case apperrors.CodeAlreadyExists, apperrors.CodeInvalidTransition:
			status = nethttp.StatusConflict
		default:
			status = nethttp.StatusBadRequest
		}
	case apperrors.KindNetwork:
		status = nethttp.StatusServiceUnavailable
		message = networkMessage
	}

	if status >= nethttp.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "kind", appErr.Kind, "error", err)
	}
	c.JSON(status, gin.H{
		"error":     message,
		"code":      appErr.Code,
		"retryable": appErr.Retryable,
	})
}

// requireUser aborts with 401 when the request carries no authenticated user.
func requireUser(c *gin.Context) (string, bool) {
	userID := userIDFromContext(c)
	if userID == "" {
		c.JSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized", "code": apperrors.CodeUnauthorized})
		return "", false
	}
	return userID, true
}

// uuidParam reads a path parameter that must be a UUID.
func uuidParam(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid " + name, "code": apperrors.CodeValidation})
		return "", false
	}
	return id.String(), true
}
