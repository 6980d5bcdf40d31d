package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/pantrycoach/backend/internal/logging"
)

// RequestLogger logs one line per request. Bodies are never logged since they
// can carry credentials.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []interface{}{
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", path,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id := UserID(c); id != uuid.Nil {
			fields = append(fields, "user_id", id)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logging.Errorw("Request failed", fields...)
		case status >= 400:
			logging.Warnw("Request rejected", fields...)
		default:
			logging.Infow("Request handled", fields...)
		}
	}
}
