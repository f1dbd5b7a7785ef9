package handlers

import (
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"

	"community-service/internal/apperrors"
	"community-service/internal/export"
	"community-service/internal/permissions"
	"community-service/internal/services"
)

type StatsHandler struct {
	stats *services.StatsService
	authz services.Authorizer
}

func NewStatsHandler(stats *services.StatsService, authz services.Authorizer) *StatsHandler {
	return &StatsHandler{stats: stats, authz: authz}
}

// admin returns the caller once they hold view_admin_dashboard.
func (h *StatsHandler) admin(c *gin.Context) (string, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return "", false
	}
	d := h.authz.HasPermission(c.Request.Context(), userID, permissions.PermViewAdminDashboard, "")
	if !d.HasPermission {
		respondError(c, apperrors.Permission(d.Reason))
		return "", false
	}
	return userID, true
}

func (h *StatsHandler) Newcomers(c *gin.Context) {
	adminID, ok := h.admin(c)
	if !ok {
		return
	}
	stats, err := h.stats.Newcomers(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, stats)
}

func (h *StatsHandler) Groups(c *gin.Context) {
	adminID, ok := h.admin(c)
	if !ok {
		return
	}
	stats, err := h.stats.Groups(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, stats)
}

func (h *StatsHandler) Requests(c *gin.Context) {
	adminID, ok := h.admin(c)
	if !ok {
		return
	}
	stats, err := h.stats.Requests(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, stats)
}

func (h *StatsHandler) Export(c *gin.Context) {
	adminID, ok := h.admin(c)
	if !ok {
		return
	}
	summary, err := h.stats.Summary(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	buf, err := export.Workbook(summary.Newcomers, summary.Groups, summary.Requests, now)
	if err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("dashboard-%s.xlsx", now.UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(nethttp.StatusOK, export.ContentType, buf.Bytes())
}
