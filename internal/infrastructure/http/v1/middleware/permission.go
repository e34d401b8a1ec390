package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spareparts/internal/core/apperror"
)

const msgNoPermission = "You do not have permission to perform this action."

// RequireEditor lets safe methods through and restricts writes to users who
// may edit their own site or see every site. It must run after CurrentUser.
func RequireEditor() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		u, err := GetCurrentUser(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if !u.CanEditOwnSite && !u.CanViewAllSites {
			_ = c.Error(apperror.NewForbidden(msgNoPermission).WithDetail("user", u.Username))
			c.Abort()
			return
		}
		c.Next()
	}
}
