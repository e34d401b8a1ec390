package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spareparts/internal/core/apperror"
	"spareparts/pkg/logger"
)

// Envelope codes.
const (
	CodeOK     = 0
	CodeFailed = 1
)

// ServerErrorDetail is the body detail of every 500.
const ServerErrorDetail = "A server error occurred."

// ErrorHandler renders the last error recorded on the context the way the
// real backend does:
//
//   - 401, 403 and 404 as a framework-style {"detail": ...} body;
//   - a stock shortage as HTTP 200 with {"code": 1, "msg": ..., "data": ...};
//   - other client errors as {"code": 1, "message": ..., "data": null};
//   - anything else, panics included, as a 500 {"detail": ...} that hides the cause.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		ctx := c.Request.Context()

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			logger.Error(ctx, "unhandled error", "error", err)
			appErr = apperror.NewInternal(err)
		}
		if appErr.Err != nil {
			logger.Error(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
		}

		status := appErr.HTTPStatus
		switch {
		case appErr.Code == apperror.CodeInsufficientStock:
			c.JSON(http.StatusOK, gin.H{"code": CodeFailed, "msg": appErr.Message, "data": appErr.Details})
		case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusNotFound:
			c.JSON(status, gin.H{"detail": appErr.Message})
		case status >= 400 && status < 500:
			c.JSON(status, gin.H{"code": CodeFailed, "message": appErr.Message, "data": nil})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"detail":     ServerErrorDetail,
				"request_id": c.GetString("request_id"),
			})
		}
	}
}
