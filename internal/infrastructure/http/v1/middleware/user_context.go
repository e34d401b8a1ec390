package middleware

import (
	"github.com/gin-gonic/gin"

	"spareparts/internal/core/apperror"
	appctx "spareparts/internal/core/context"
	"spareparts/internal/core/id"
	"spareparts/internal/infrastructure/mockapi"
)

const currentUserKey = "current_user"

// UserLoader resolves the account behind a validated token.
type UserLoader interface {
	User(userID id.ID) (*mockapi.User, error)
}

// CurrentUser loads the account of the authenticated caller. It must run
// after Auth.
func CurrentUser(loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := appctx.GetUserID(c.Request.Context())
		if userID == "" {
			abortUnauthorized(c, msgNoCredentials)
			return
		}
		u, err := loader.User(id.ID(userID))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(currentUserKey, u)
		c.Next()
	}
}

// GetCurrentUser returns the account loaded by CurrentUser.
func GetCurrentUser(c *gin.Context) (*mockapi.User, error) {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(*mockapi.User); ok {
			return u, nil
		}
	}
	return nil, apperror.NewUnauthorized(msgNoCredentials)
}
