package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"community-service/internal/apperrors"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"permission", apperrors.Permission("nope"), http.StatusForbidden},
		{"rls", &pq.Error{Code: "42501"}, http.StatusForbidden},
		{"not found", sql.ErrNoRows, http.StatusNotFound},
		{"duplicate", &pq.Error{Code: "23505"}, http.StatusConflict},
		{"transition", apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidTransition, "x"), http.StatusConflict},
		{"validation", apperrors.Validation("bad"), http.StatusBadRequest},
		{"auth", errors.New("token is expired"), http.StatusUnauthorized},
		{"network", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"silent", apperrors.SuppressAfterDeletion(sql.ErrNoRows, "friendships"), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tc.err)
			c.Writer.WriteHeaderNow()

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRespondErrorHidesNetworkDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), networkMessage)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
