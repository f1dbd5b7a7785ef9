package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"community-service/internal/cache"
	"community-service/internal/export"
	"community-service/internal/mocks"
	"community-service/internal/models"
	"community-service/internal/permissions"
	"community-service/internal/services"
)

type recordingSessions struct {
	closed []string
}

func (s *recordingSessions) Disconnect(userID string) {
	s.closed = append(s.closed, userID)
}

func serve(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDeleteMeDisconnectsAndSilencesLaterReads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := new(mocks.MockUserRepository)
	authz := new(mocks.MockAuthorizer)
	sessions := &recordingSessions{}
	handler := NewUserHandler(services.NewUserService(users, authz, nil, services.NewTombstones(time.Minute)), sessions, nil)

	r := gin.New()
	r.Use(withUser(meID))
	r.GET("/users/me", handler.GetMe)
	r.DELETE("/users/me", handler.DeleteMe)

	users.On("Delete", mock.Anything, meID).Return(nil).Once()
	authz.On("Invalidate", meID).Return().Once()
	users.On("GetByID", mock.Anything, meID).Return(nil, sql.ErrNoRows).Once()

	rec := serve(r, http.MethodDelete, "/users/me", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{meID}, sessions.closed)

	rec = serve(r, http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestSetRolesRejectsEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewUserHandler(services.NewUserService(new(mocks.MockUserRepository), new(mocks.MockAuthorizer), nil, services.NewTombstones(time.Minute)), nil, nil)
	r := gin.New()
	r.Use(withUser(meID))
	r.PUT("/users/:id/roles", handler.SetRoles)

	rec := serve(r, http.MethodPut, "/users/"+otherID+"/roles", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func newStatsRouter(decision permissions.Decision) (*gin.Engine, *mocks.MockUserRepository) {
	gin.SetMode(gin.TestMode)
	users := new(mocks.MockUserRepository)
	authz := new(mocks.MockAuthorizer)
	authz.On("HasPermission", mock.Anything, meID, permissions.PermViewAdminDashboard, "").Return(decision)
	stats := services.NewStatsService(users, new(mocks.MockGroupRepository), new(mocks.MockMembershipRepository))
	handler := NewStatsHandler(stats, authz)

	r := gin.New()
	r.Use(withUser(meID))
	r.GET("/admin/stats/groups", handler.Groups)
	r.GET("/admin/stats/requests", handler.Requests)
	r.GET("/admin/stats/export", handler.Export)
	return r, users
}

func TestStatsRequireDashboardPermission(t *testing.T) {
	r, users := newStatsRouter(permissions.Decision{Reason: permissions.ReasonChurchAdminOnly})

	rec := serve(r, http.MethodGet, "/admin/stats/groups", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestStatsRequestsWithoutChurchIsZero(t *testing.T) {
	r, users := newStatsRouter(permissions.Decision{HasPermission: true})
	users.On("GetByID", mock.Anything, meID).Return(&models.User{ID: meID}, nil).Once()

	rec := serve(r, http.MethodGet, "/admin/stats/requests", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.RequestsStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.Outstanding)
	assert.NotNil(t, stats.ArchivedByReason)
}

func TestStatsExportServesWorkbook(t *testing.T) {
	r, users := newStatsRouter(permissions.Decision{HasPermission: true})
	users.On("GetByID", mock.Anything, meID).Return(&models.User{ID: meID}, nil)

	rec := serve(r, http.MethodGet, "/admin/stats/export", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="dashboard-`)
	assert.NotZero(t, rec.Body.Len())
}

func TestPermissionCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := new(mocks.MockUserRepository)
	resolver := permissions.NewResolver(users, new(mocks.MockMembershipRepository), new(mocks.MockResourceRepository),
		cache.NewTTL[string, *models.User](time.Minute))
	users.On("GetByID", mock.Anything, meID).Return(&models.User{ID: meID, Roles: []string{models.RoleUser}}, nil).Once()

	r := gin.New()
	r.Use(withUser(meID))
	r.POST("/permissions/check", NewPermissionHandler(resolver).Check)

	rec := serve(r, http.MethodPost, "/permissions/check", gin.H{"check": "has_permission", "permission": "create_referral"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"has_permission":true}`, rec.Body.String())

	rec = serve(r, http.MethodPost, "/permissions/check", gin.H{"check": "has_permission", "permission": "view_admin_dashboard"})
	require.Equal(t, http.StatusOK, rec.Code)
	var d permissions.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.False(t, d.HasPermission)
	assert.NotEmpty(t, d.Reason)

	rec = serve(r, http.MethodPost, "/permissions/check", gin.H{"check": "can_modify_resource", "resource_type": "planet"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodPost, "/permissions/check", gin.H{"check": "guess"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestResolveDeepLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/deeplinks/resolve", NewDeepLinkHandler("smallgroups").Resolve)

	rec := serve(r, http.MethodGet, "/deeplinks/resolve?url=smallgroups://group/g1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":"group","id":"g1"}`, rec.Body.String())

	for _, raw := range []string{"smallgroups://auth/callback", "https://example.com/group/g1", "smallgroups://unknown/1"} {
		rec = serve(r, http.MethodGet, "/deeplinks/resolve?url="+raw, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, raw)
	}
}

func TestNotificationInbox(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := new(mocks.MockNotificationRepository)
	handler := NewNotificationHandler(services.NewNotificationService(repo, nil, nil, "smallgroups"))
	r := gin.New()
	r.Use(withUser(meID))
	r.GET("/notifications", handler.List)
	r.GET("/notifications/unread-count", handler.UnreadCount)
	r.POST("/notifications/:id/read", handler.MarkRead)

	repo.On("ListForUser", mock.Anything, meID, true, 50).Return(nil, nil).Once()
	repo.On("CountUnread", mock.Anything, meID).Return(3, nil).Once()
	repo.On("MarkRead", mock.Anything, otherID, meID).Return(sql.ErrNoRows).Once()

	rec := serve(r, http.MethodGet, "/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(r, http.MethodGet, "/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread":3}`, rec.Body.String())

	rec = serve(r, http.MethodPost, "/notifications/"+otherID+"/read", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertExpectations(t)
}

func TestMarkReadAfterReaderDeletionIsSilent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := new(mocks.MockNotificationRepository)
	tombstones := services.NewTombstones(time.Minute)
	tombstones.Mark(meID)
	handler := NewNotificationHandler(services.NewNotificationService(repo, nil, nil, "smallgroups").WithTombstones(tombstones))
	r := gin.New()
	r.Use(withUser(meID))
	r.POST("/notifications/:id/read", handler.MarkRead)

	repo.On("MarkRead", mock.Anything, otherID, meID).Return(sql.ErrNoRows).Once()

	rec := serve(r, http.MethodPost, "/notifications/"+otherID+"/read", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	repo.AssertExpectations(t)
}
