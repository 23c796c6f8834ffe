package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/logging"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/metrics"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

// ServerErrorMessage is the body of unexpected failures
const ServerErrorMessage = "Server error"

// Recovery turns handler panics into a 500 JSON response. http.ErrAbortHandler
// is passed through so net/http can drop the connection without a body.
func Recovery(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			metrics.RecordError("http", "panic")
			logger.WithRequestID(GetRequestID(c)).
				WithField("path", c.Request.URL.Path).
				Error(fmt.Sprintf("Recovered from panic: %v", rec))

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: ServerErrorMessage,
			})
		}()

		c.Next()
	}
}
