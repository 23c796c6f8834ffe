package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/metrics"
)

// Metrics records request counts and latency per route
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		defer func() {
			endpoint := c.FullPath()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			metrics.RecordHTTPRequest(
				c.Request.Method,
				endpoint,
				strconv.Itoa(c.Writer.Status()),
				time.Since(start).Seconds(),
			)
		}()

		c.Next()
	}
}
