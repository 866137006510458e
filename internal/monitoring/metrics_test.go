package monitoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-matrix/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMonitor(m *monitoring.Monitor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/health", m.HealthHandler())
	router.GET("/ready", m.ReadinessHandler())
	router.GET("/live", m.LivenessHandler())
	router.GET("/metrics", m.MetricsHandler())
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth_AllHealthy(t *testing.T) {
	m := monitoring.NewMonitor()
	m.RegisterHealthCheck("database", true, func(ctx context.Context) error { return nil })
	router := setupMonitor(m)

	w := get(router, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	assert.Equal(t, http.StatusOK, get(router, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(router, "/live").Code)
}

func TestHealth_CriticalFailure(t *testing.T) {
	m := monitoring.NewMonitor()
	m.RegisterHealthCheck("database", true, func(ctx context.Context) error { return errors.New("connection refused") })
	router := setupMonitor(m)

	w := get(router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	assert.Equal(t, http.StatusServiceUnavailable, get(router, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(router, "/live").Code)
}

func TestHealth_NonCriticalFailureDegrades(t *testing.T) {
	m := monitoring.NewMonitor()
	m.RegisterHealthCheck("database", true, func(ctx context.Context) error { return nil })
	m.RegisterHealthCheck("cache", false, func(ctx context.Context) error { return errors.New("circuit breaker is open") })
	router := setupMonitor(m)

	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Equal(t, http.StatusOK, get(router, "/ready").Code)
}

func TestMetrics_CountsRequests(t *testing.T) {
	m := monitoring.NewMonitor()
	m.RegisterStats("cache", func() map[string]interface{} { return map[string]interface{}{"hits": 3} })
	router := setupMonitor(m)

	get(router, "/live")
	get(router, "/boom")
	get(router, "/nowhere")

	snap := m.Snapshot()
	assert.EqualValues(t, 3, snap.RequestCount)
	assert.EqualValues(t, 2, snap.ErrorCount)
	assert.EqualValues(t, 0, snap.ActiveRequests)
	assert.EqualValues(t, 1, snap.Endpoints["GET /boom"])
	assert.EqualValues(t, 1, snap.Endpoints["GET unmatched"])

	w := get(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Components map[string]map[string]int `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Components["cache"]["hits"])
}
