package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ZapLogger logs one line per request. Server errors are logged at warn level.
func ZapLogger(l *zap.Logger) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		uri := c.Request.RequestURI

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("uri", uri),
			zap.Int("status", status),
			zap.Int("size", max(c.Writer.Size(), 0)),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := c.GetString(RequestIDKey); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if errs := c.Errors.String(); errs != "" {
			fields = append(fields, zap.String("errors", errs))
		}

		if status >= 500 {
			l.Warn("http_request", fields...)
			return
		}
		l.Info("http_request", fields...)
	}
}
