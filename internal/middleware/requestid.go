package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey is the gin context key of the request id
	RequestIDContextKey = "request_id"

	maxRequestIDLength = 64
)

// RequestID assigns every request an id, reusing a sane inbound one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength || !printableASCII(id) {
			id = uuid.New().String()
		}

		c.Set(RequestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID retrieves the request id from the context
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}

func printableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
