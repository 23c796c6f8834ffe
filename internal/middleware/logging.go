package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/logging"
)

// Logger middleware logs request details. The entry is written even when a
// handler aborts the connection with a panic.
func Logger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			path = path + "?" + query
		}

		defer func() {
			l := logger
			if id := GetRequestID(c); id != "" {
				l = l.WithRequestID(id)
			}
			l.LogHTTPRequest(
				c.Request.Method,
				path,
				c.ClientIP(),
				c.Writer.Status(),
				c.Writer.Size(),
				time.Since(start),
			)
		}()

		c.Next()
	}
}
