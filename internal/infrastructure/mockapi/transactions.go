package mockapi

import (
	"fmt"
	"strings"
	"time"

	"spareparts/internal/core/apperror"
	"spareparts/internal/core/id"
	"spareparts/internal/domain/inventory"
)

// PartSummary heads a part's transaction history.
type PartSummary struct {
	ID              id.ID  `json:"id"`
	Name            string `json:"name"`
	CurrentQuantity int    `json:"current_quantity"`
}

var typeDisplay = map[string]string{
	inventory.TransactionIn:  "Stock in",
	inventory.TransactionOut: "Stock out",
}

// ListTransactions returns one page of the ledger, newest first, and the
// number of matching transactions.
func (b *Backend) ListTransactions(filter inventory.TransactionFilter) ([]inventory.Transaction, int, error) {
	txType := strings.ToUpper(filter.TransactionType)
	start, err := parseBound(filter.StartDate, "start_date")
	if err != nil {
		return nil, 0, err
	}
	end, err := parseBound(filter.EndDate, "end_date")
	if err != nil {
		return nil, 0, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []inventory.Transaction
	for i := len(b.transactions) - 1; i >= 0; i-- {
		t := b.transactions[i]
		if !filter.SparePartID.IsNil() && t.SparePart.ID != filter.SparePartID {
			continue
		}
		if txType != "" && t.TransactionType != txType {
			continue
		}
		if !start.IsZero() || !end.IsZero() {
			created, _ := time.Parse(time.RFC3339, t.CreatedAt)
			if !start.IsZero() && created.Before(start) {
				continue
			}
			if !end.IsZero() && created.After(end) {
				continue
			}
		}
		matched = append(matched, t)
	}
	return paginate(matched, filter.Page, filter.Limit), len(matched), nil
}

// PartTransactions returns a part's summary and its history, newest first.
func (b *Backend) PartTransactions(partID id.ID, page, limit int) (PartSummary, []inventory.Transaction, int, error) {
	b.mu.RLock()
	p, ok := b.parts[partID]
	if !ok {
		b.mu.RUnlock()
		return PartSummary{}, nil, 0, apperror.NewNotFound("spare part", partID)
	}
	summary := PartSummary{ID: p.ID, Name: p.Name, CurrentQuantity: p.Quantity}
	b.mu.RUnlock()

	items, total, err := b.ListTransactions(inventory.TransactionFilter{SparePartID: partID, Page: page, Limit: limit})
	return summary, items, total, err
}

// CreateTransaction records a stock movement by u and applies it to the
// part's quantity. When no part is named, the part is looked up by name at
// the given site and created with zero stock if missing. Taking out more
// than is in stock fails with INSUFFICIENT_STOCK and changes nothing.
func (b *Backend) CreateTransaction(u *User, in inventory.TransactionInput) (inventory.Transaction, error) {
	txType := strings.ToUpper(in.TransactionType)
	if _, ok := typeDisplay[txType]; !ok {
		return inventory.Transaction{}, apperror.NewValidation(fmt.Sprintf("%q is not a valid transaction type", in.TransactionType)).
			WithDetail("field", "transaction_type")
	}
	if in.Quantity <= 0 {
		return inventory.Transaction{}, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.resolvePart(u, in)
	if err != nil {
		return inventory.Transaction{}, err
	}
	if txType == inventory.TransactionOut && in.Quantity > p.Quantity {
		return inventory.Transaction{}, apperror.NewInsufficientStock(p.ID, in.Quantity, p.Quantity)
	}

	now := b.timestamp()
	if txType == inventory.TransactionIn {
		p.Quantity += in.Quantity
	} else {
		p.Quantity -= in.Quantity
	}
	p.UpdatedAt = now

	t := inventory.Transaction{
		ID:                     b.nextID("transaction"),
		SparePart:              inventory.PartRef{ID: p.ID},
		SparePartName:          p.Name,
		TransactionType:        txType,
		TransactionTypeDisplay: typeDisplay[txType],
		Quantity:               in.Quantity,
		Reason:                 in.Reason,
		Remark:                 in.Remark,
		Operator:               &inventory.OperatorRef{Value: u.ID.String()},
		OperatorName:           u.Username,
		CreatedAt:              now,
		Price:                  in.Price,
	}
	b.transactions = append(b.transactions, t)
	return t, nil
}

// resolvePart must be called with mu held.
func (b *Backend) resolvePart(u *User, in inventory.TransactionInput) (*inventory.SparePart, error) {
	if !in.SparePart.IsNil() {
		p, ok := b.parts[in.SparePart]
		if !ok {
			return nil, apperror.NewValidation(fmt.Sprintf("spare part %s does not exist", in.SparePart)).WithDetail("field", "spare_part")
		}
		return p, nil
	}

	name := strings.TrimSpace(in.SparePartNameInput)
	if name == "" {
		return nil, apperror.NewValidation("spare_part or spare_part_name_input is required")
	}
	if in.SparePartSiteID.IsNil() {
		return nil, apperror.NewValidation("spare_part or spare_part_site_id is required")
	}
	if _, ok := b.site(in.SparePartSiteID); !ok {
		return nil, apperror.NewValidation(fmt.Sprintf("site %s does not exist", in.SparePartSiteID))
	}
	if !in.SparePartCategoryID.IsNil() {
		if _, ok := b.category(in.SparePartCategoryID); !ok {
			return nil, apperror.NewValidation(fmt.Sprintf("category %s does not exist", in.SparePartCategoryID))
		}
	}

	for _, p := range b.parts {
		if p.Name == name && p.StationID == in.SparePartSiteID {
			return p, nil
		}
	}

	alarm, days := DefaultAlarmQty, DefaultProcurementDays
	p := &inventory.SparePart{
		ID:              b.nextID("part"),
		Name:            name,
		Model:           orDefault(in.SparePartModel, DefaultModel),
		Location:        orDefault(in.SparePartLocation, DefaultLocation),
		CategoryID:      in.SparePartCategoryID,
		StationID:       in.SparePartSiteID,
		Status:          inventory.StatusActive,
		AlarmQty:        &alarm,
		ProcurementDays: &days,
		CreatedAt:       b.timestamp(),
	}
	p.UpdatedAt = p.CreatedAt
	b.parts[p.ID] = p
	return p, nil
}

// Statistics summarizes movements of one part, or of all parts when partID
// is nil.
func (b *Backend) Statistics(partID id.ID) inventory.Statistics {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var st inventory.Statistics
	for _, t := range b.transactions {
		if !partID.IsNil() && t.SparePart.ID != partID {
			continue
		}
		st.TotalTransactions++
		switch t.TransactionType {
		case inventory.TransactionIn:
			st.In.Count++
			st.In.Quantity += t.Quantity
		case inventory.TransactionOut:
			st.Out.Count++
			st.Out.Quantity += t.Quantity
		}
	}
	return st
}

// parseBound accepts an RFC 3339 timestamp or a calendar date (midnight UTC).
func parseBound(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.NewValidation(fmt.Sprintf("invalid %s %q", field, value)).WithDetail("field", field)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
