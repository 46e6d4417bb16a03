package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/guestbook/pkg/metrics"
)

// UnmatchedRoute labels requests that hit no registered route.
const UnmatchedRoute = "unmatched"

// Metrics observes request latency labelled by route template, so arbitrary
// client paths never create new series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
