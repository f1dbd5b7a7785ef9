package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"community-service/internal/metrics"
	"community-service/internal/mocks"
	"community-service/internal/models"
	"community-service/internal/services"
)

const (
	meID    = "6f1c2b9e-9d8f-4b6a-8f43-2f1a6c3d9e01"
	otherID = "0b7d1e44-2c55-4f0e-9a3c-5d2b8e6f7a10"
)

func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	}
}

func setupFriendsRouter(handler *FriendHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Use(withUser(userID))
	r.GET("/friends/:user_id/status", handler.Status)
	r.POST("/friends/:user_id/request", handler.SendRequest)
	r.POST("/friends/:user_id/accept", handler.Accept)
	r.DELETE("/friends/:user_id", handler.Remove)
	r.GET("/friends", handler.ListFriends)
	return r
}

func newFriendRouter(userID string) (*gin.Engine, *mocks.MockFriendRepository, *mocks.MockUserRepository, *mocks.MockNotifier) {
	friends := new(mocks.MockFriendRepository)
	users := new(mocks.MockUserRepository)
	notifier := new(mocks.MockNotifier)
	handler := NewFriendHandler(services.NewFriendshipService(friends, users, notifier), nil)
	return setupFriendsRouter(handler, userID), friends, users, notifier
}

func fetchMetrics(t *testing.T, router *gin.Engine) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func metricValue(metricsBody, series string) (float64, bool) {
	for _, line := range strings.Split(metricsBody, "\n") {
		if strings.HasPrefix(line, series+" ") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return 0, false
			}
			value, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return 0, false
			}
			return value, true
		}
	}
	return 0, false
}

func assertMetricIncrement(t *testing.T, router *gin.Engine, series string, call func()) {
	t.Helper()
	before, _ := metricValue(fetchMetrics(t, router), series)
	call()
	after, found := metricValue(fetchMetrics(t, router), series)
	require.True(t, found)
	require.Greater(t, after, before)
}

func TestFriendStatusOK(t *testing.T) {
	router, friends, _, _ := newFriendRouter(meID)
	friends.On("FindBetween", mock.Anything, meID, otherID).
		Return(&models.Friendship{ID: "f1", UserID: otherID, FriendID: meID, Status: models.FriendshipPending}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends/"+otherID+"/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var state models.FriendshipState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, models.FriendshipPending, state.Status)
	assert.Equal(t, models.DirectionIncoming, state.Direction)
}

func TestFriendRoutesRequireUser(t *testing.T) {
	router, _, _, _ := newFriendRouter("")

	req := httptest.NewRequest(http.MethodGet, "/friends", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendRequestInvalidUserID(t *testing.T) {
	router, friends, _, _ := newFriendRouter(meID)

	req := httptest.NewRequest(http.MethodPost, "/friends/42/request", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	friends.AssertNotCalled(t, "FindBetween", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRequestCreated(t *testing.T) {
	router, friends, users, notifier := newFriendRouter(meID)
	users.On("GetByID", mock.Anything, mock.Anything).Return(&models.User{FirstName: "Ann"}, nil)
	friends.On("FindBetween", mock.Anything, meID, otherID).Return(nil, nil).Once()
	friends.On("Create", mock.Anything, meID, otherID, models.FriendshipPending).
		Return(&models.Friendship{ID: "f1", UserID: meID, FriendID: otherID, Status: models.FriendshipPending}, nil).Once()
	notifier.On("Notify", mock.Anything, otherID, models.NotifyFriendRequest, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/"+otherID+"/request", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"direction":"outgoing"`)
}

func TestSendRequestToSelfMetricsFailed(t *testing.T) {
	metrics.RegisterDomainMetrics()
	router, _, _, _ := newFriendRouter(meID)

	assertMetricIncrement(t, router, `friendship_transitions_total{action="request",status="failed"}`, func() {
		req := httptest.NewRequest(http.MethodPost, "/friends/"+meID+"/request", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAcceptWithoutPendingRequestReturnsNotFound(t *testing.T) {
	router, friends, _, _ := newFriendRouter(meID)
	friends.On("FindBetween", mock.Anything, meID, otherID).Return(nil, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/"+otherID+"/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no pending friend request")
}

func TestRemoveFriend(t *testing.T) {
	router, friends, _, _ := newFriendRouter(meID)
	friends.On("FindBetween", mock.Anything, meID, otherID).
		Return(&models.Friendship{ID: "f1", UserID: meID, FriendID: otherID, Status: models.FriendshipAccepted}, nil).Once()
	friends.On("Delete", mock.Anything, "f1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/friends/"+otherID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"none"`)
}
