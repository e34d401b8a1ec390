package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"spareparts/internal/core/apperror"
	"spareparts/internal/domain/inventory"
	"spareparts/internal/infrastructure/http/v1/dto"
	"spareparts/internal/infrastructure/mockapi"
)

const (
	imageField   = "image"
	maxImageSize = 8 << 20
)

// PartHandler handles HTTP requests for spare parts.
type PartHandler struct {
	*BaseHandler
	backend *mockapi.Backend
}

// NewPartHandler creates a new spare part handler.
func NewPartHandler(base *BaseHandler, backend *mockapi.Backend) *PartHandler {
	return &PartHandler{BaseHandler: base, backend: backend}
}

// List handles GET /spare-parts/
func (h *PartHandler) List(c *gin.Context) {
	user, ok := h.User(c)
	if !ok {
		return
	}
	var q dto.PartListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Defaults()

	items, total := h.backend.ListParts(user, q.ToFilter())
	respondPage(h.BaseHandler, c, items, total, q.PageRequest)
}

// Get handles GET /spare-parts/:id/
func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.backend.Part(h.PathID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, part)
}

// Create handles POST /spare-parts/ with a JSON or multipart body.
func (h *PartHandler) Create(c *gin.Context) {
	user, ok := h.User(c)
	if !ok {
		return
	}
	in, image, ok := h.bindPart(c)
	if !ok {
		return
	}

	part, err := h.backend.CreatePart(user, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	if image != nil {
		if part, err = h.storeImage(part, image); err != nil {
			h.Error(c, err)
			return
		}
	}
	h.Created(c, part)
}

// Update handles PUT and PATCH /spare-parts/:id/. Both are partial.
func (h *PartHandler) Update(c *gin.Context) {
	in, image, ok := h.bindPart(c)
	if !ok {
		return
	}

	part, err := h.backend.UpdatePart(h.PathID(c), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	if image != nil {
		if part, err = h.storeImage(part, image); err != nil {
			h.Error(c, err)
			return
		}
	}
	h.OK(c, part)
}

// Delete handles DELETE /spare-parts/:id/
func (h *PartHandler) Delete(c *gin.Context) {
	if err := h.backend.DeletePart(h.PathID(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Image handles GET /media/spare_parts/:name
func (h *PartHandler) Image(c *gin.Context) {
	data, ok := h.backend.Image(c.Param("name"))
	if !ok {
		h.Error(c, apperror.NewNotFound("image", c.Param("name")))
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// bindPart reads a part record from a JSON body or from multipart form
// fields plus an optional image file.
func (h *PartHandler) bindPart(c *gin.Context) (inventory.PartInput, *multipart.FileHeader, bool) {
	var in inventory.PartInput
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return in, nil, h.BindJSON(c, &in)
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid multipart body").WithCause(err))
		return in, nil, false
	}
	if in, err = dto.PartFromForm(form.Value); err != nil {
		h.Error(c, err)
		return in, nil, false
	}
	var image *multipart.FileHeader
	if files := form.File[imageField]; len(files) > 0 {
		image = files[0]
	}
	return in, image, true
}

func (h *PartHandler) storeImage(part inventory.SparePart, fh *multipart.FileHeader) (inventory.SparePart, error) {
	if fh.Size > maxImageSize {
		return part, apperror.NewValidation(fmt.Sprintf("image exceeds %d bytes", maxImageSize)).WithDetail("field", imageField)
	}
	f, err := fh.Open()
	if err != nil {
		return part, apperror.NewInternal(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return part, apperror.NewInternal(err)
	}
	return h.backend.SetPartImage(part.ID, fh.Filename, data)
}
