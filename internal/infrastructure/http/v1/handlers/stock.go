package handlers

import (
	"github.com/gin-gonic/gin"

	"spareparts/internal/core/apperror"
	"spareparts/internal/core/id"
	"spareparts/internal/domain/inventory"
	"spareparts/internal/infrastructure/http/v1/dto"
	"spareparts/internal/infrastructure/mockapi"
)

// TransactionHandler handles the stock transaction ledger.
type TransactionHandler struct {
	*BaseHandler
	backend *mockapi.Backend
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(base *BaseHandler, backend *mockapi.Backend) *TransactionHandler {
	return &TransactionHandler{BaseHandler: base, backend: backend}
}

// List handles GET /transactions/
func (h *TransactionHandler) List(c *gin.Context) {
	var q dto.TransactionListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Defaults()

	items, total, err := h.backend.ListTransactions(q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	respondPage(h.BaseHandler, c, items, total, q.PageRequest)
}

// Create handles POST /transactions/. A stock-out beyond the available
// quantity is answered with HTTP 200 and a non-zero envelope code.
func (h *TransactionHandler) Create(c *gin.Context) {
	user, ok := h.User(c)
	if !ok {
		return
	}
	var in inventory.TransactionInput
	if !h.BindJSON(c, &in) {
		return
	}

	tx, err := h.backend.CreateTransaction(user, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, tx)
}

// ByPart handles GET /transactions/by_spare_part
func (h *TransactionHandler) ByPart(c *gin.Context) {
	partID := id.ID(c.Query("spare_part_id"))
	if partID.IsNil() {
		h.Error(c, apperror.NewValidation("spare_part_id parameter is missing"))
		return
	}
	var page dto.PageRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	summary, items, total, err := h.backend.PartTransactions(partID, page.Page, page.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PartHistoryResponse{SparePart: summary, Page: dto.NewPage(items, total, page)})
}

// Statistics handles GET /transactions/statistics/
func (h *TransactionHandler) Statistics(c *gin.Context) {
	h.OK(c, h.backend.Statistics(id.ID(c.Query("spare_part_id"))))
}
