package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/guestbook/internal/monitoring"
)

// HealthHandler exposes liveness and readiness probes as JSON.
type HealthHandler struct {
	manager *monitoring.HealthManager
}

// NewHealthHandler wraps a health manager. A nil manager reports the probes as disabled.
func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// Summary reports readiness without per-check details.
func (h *HealthHandler) Summary(c *gin.Context) {
	if h.manager == nil {
		disabled(c)
		return
	}
	report := h.manager.EvaluateReadiness(requestContext(c))
	c.JSON(reportStatus(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checked_at": time.Now().UTC(),
	})
}

// Live evaluates liveness probes.
func (h *HealthHandler) Live(c *gin.Context) {
	if h.manager == nil {
		disabled(c)
		return
	}
	writeHealthReport(c, h.manager.EvaluateLiveness(requestContext(c)))
}

// Ready evaluates readiness probes.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.manager == nil {
		disabled(c)
		return
	}
	writeHealthReport(c, h.manager.EvaluateReadiness(requestContext(c)))
}

func disabled(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}

func reportStatus(report monitoring.HealthReport) int {
	if !report.Success {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeHealthReport(c *gin.Context, report monitoring.HealthReport) {
	c.JSON(reportStatus(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checks":     report.Checks,
		"checked_at": time.Now().UTC(),
	})
}
