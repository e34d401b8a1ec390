package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spareparts/internal/infrastructure/http/v1/dto"
	"spareparts/internal/infrastructure/mockapi"
)

// CatalogHandler serves the reference lists: sites and categories.
type CatalogHandler struct {
	*BaseHandler
	backend *mockapi.Backend
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, backend *mockapi.Backend) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, backend: backend}
}

// Sites handles GET /sites/. The list is a bare array.
func (h *CatalogHandler) Sites(c *gin.Context) {
	c.JSON(http.StatusOK, h.backend.Sites())
}

// Categories handles GET /categories/
func (h *CatalogHandler) Categories(c *gin.Context) {
	h.OK(c, h.backend.Categories())
}

// CreateCategory handles POST /categories/
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	created, err := h.backend.CreateCategory(req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created)
}
