package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader correlates a post with the collector log line.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "request_id"
)

// RequestID keeps the id sent by the client, or assigns a new one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
