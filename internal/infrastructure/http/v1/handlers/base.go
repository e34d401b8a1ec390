// Package handlers provides the HTTP handlers of the mock backend.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spareparts/internal/core/apperror"
	"spareparts/internal/core/id"
	"spareparts/internal/infrastructure/http/v1/dto"
	"spareparts/internal/infrastructure/http/v1/middleware"
	"spareparts/internal/infrastructure/mockapi"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	// resultsStyle serves lists as bare {count, next, previous, results}.
	resultsStyle bool
}

// NewBaseHandler creates a new base handler.
func NewBaseHandler(resultsStyle bool) *BaseHandler {
	return &BaseHandler{resultsStyle: resultsStyle}
}

// BindJSON binds the JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the context and aborts. The response is written by
// middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// User returns the authenticated account, aborting when there is none.
func (h *BaseHandler) User(c *gin.Context) (*mockapi.User, bool) {
	u, err := middleware.GetCurrentUser(c)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return u, true
}

// PathID returns the :id path parameter.
func (h *BaseHandler) PathID(c *gin.Context) id.ID {
	return id.ID(c.Param("id"))
}

// OK sends 200 with data in a success envelope.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.Success(data))
}

// Created sends 201 with data in a success envelope.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.Envelope{Code: 0, Message: "created", Data: data})
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// respondPage writes one page of a list in the configured style.
func respondPage[T any](h *BaseHandler, c *gin.Context, items []T, total int, req dto.PageRequest) {
	if h.resultsStyle {
		c.JSON(http.StatusOK, dto.NewResultsPage(items, total, req, c.Request.URL))
		return
	}
	h.OK(c, dto.NewPage(items, total, req))
}
