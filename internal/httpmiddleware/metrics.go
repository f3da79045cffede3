package httpmiddleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"buzzatt/internal/metrics"
)

// Metrics records request counts and latency per matched route. Requests
// that match no route are grouped under "unmatched".
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
