package middleware

import (
	"strconv"

	"github.com/coup-arena/backend/go/internal/v1/metrics"
	"github.com/gin-gonic/gin"
)

// RequestMetrics counts every handled request by route and status code.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
