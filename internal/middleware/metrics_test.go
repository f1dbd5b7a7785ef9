package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-service/internal/observability"
)

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observability.InitMetrics(prometheus.DefaultRegisterer)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/friends/:user_id/status", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/friends/6f1c2b9e-9d8f-4b6a-8f43-2f1a6c3d9e01/status", "/nowhere/42"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `community_http_requests_total{method="GET",route="/friends/:user_id/status",status="200"}`)
	assert.Contains(t, body, `community_http_requests_total{method="GET",route="unmatched",status="404"}`)
	assert.False(t, strings.Contains(body, `route="/metrics"`))
	assert.NotContains(t, body, "6f1c2b9e")
}
