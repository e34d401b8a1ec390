// Package v1 provides the HTTP API of the mock backend.
package v1

import (
	"github.com/gin-gonic/gin"
)

// ResourceRouteHandler defines the standard CRUD handler set of a resource.
type ResourceRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterResourceRoutes registers CRUD routes for a resource, with the
// trailing slashes the backend uses. PUT and PATCH are both partial updates.
//
// Usage:
//
//	handler := handlers.NewPartHandler(base, backend)
//	RegisterResourceRoutes(api.Group("/spare-parts"), handler)
func RegisterResourceRoutes(group *gin.RouterGroup, handler ResourceRouteHandler) {
	group.GET("/", handler.List)
	group.POST("/", handler.Create)
	group.GET("/:id/", handler.Get)
	group.PUT("/:id/", handler.Update)
	group.PATCH("/:id/", handler.Update)
	group.DELETE("/:id/", handler.Delete)
}
