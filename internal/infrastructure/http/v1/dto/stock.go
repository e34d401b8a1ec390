package dto

import (
	"spareparts/internal/core/id"
	"spareparts/internal/domain/inventory"
	"spareparts/internal/infrastructure/mockapi"
)

// TransactionListQuery is the query string of GET /transactions/.
type TransactionListQuery struct {
	PageRequest
	SparePartID     string `form:"spare_part_id"`
	TransactionType string `form:"transaction_type"`
	StartDate       string `form:"start_date"`
	EndDate         string `form:"end_date"`
}

// ToFilter converts the query to a transaction filter.
func (q TransactionListQuery) ToFilter() inventory.TransactionFilter {
	return inventory.TransactionFilter{
		SparePartID:     id.ID(q.SparePartID),
		TransactionType: q.TransactionType,
		StartDate:       q.StartDate,
		EndDate:         q.EndDate,
		Page:            q.Page,
		Limit:           q.Limit,
	}
}

// PartHistoryResponse is the payload of GET /transactions/by_spare_part.
type PartHistoryResponse struct {
	SparePart mockapi.PartSummary `json:"spare_part"`
	Page[inventory.Transaction]
}
