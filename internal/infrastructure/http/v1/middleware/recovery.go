// Package middleware provides the gin middleware of the mock backend.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"spareparts/internal/core/apperror"
	"spareparts/pkg/logger"
)

// Recovery converts a handler panic into an internal error for ErrorHandler,
// which renders it as a 500 {"detail": ...} body. The stack only goes to the log.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			requestID := c.GetString("request_id")
			logger.Error(c.Request.Context(), "handler panicked",
				"method", c.Request.Method,
				"route", c.FullPath(),
				"request_id", requestID,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), rec)).
				WithDetail("request_id", requestID))
			c.Abort()
		}()
		c.Next()
	}
}
