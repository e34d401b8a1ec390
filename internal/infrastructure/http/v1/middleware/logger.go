package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"spareparts/pkg/logger"
)

// Logger logs every request with its status and latency, and makes log
// available to the rest of the chain through the request context.
func Logger(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("mockapi")
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		log.WithContext(c.Request.Context()).Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"user_id", c.GetString("user_id"),
			"error", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}
