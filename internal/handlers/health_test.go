package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/guestbook/internal/monitoring"
)

func newHealthRouter(manager *monitoring.HealthManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(manager)
	r := gin.New()
	r.GET("/health", h.Summary)
	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)
	return r
}

func TestHealthEndpoints(t *testing.T) {
	manager := monitoring.NewHealthManager()
	manager.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("database", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "unreachable"}
	}))
	r := newHealthRouter(manager)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Success bool                     `json:"success"`
		Status  string                   `json:"status"`
		Checks  []monitoring.ProbeResult `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, "down", body.Status)
	require.Len(t, body.Checks, 1)
	require.Equal(t, "unreachable", body.Checks[0].Details)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotContains(t, w.Body.String(), "checks")
}

func TestHealthEndpointsDisabled(t *testing.T) {
	r := newHealthRouter(nil)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, w.Code, path)
		require.Contains(t, w.Body.String(), "disabled")
	}
}
