// Package inventory holds the client-side inventory state: categories, sites,
// the current page of spare parts, the part being viewed and its stock
// transaction history.
package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"spareparts/internal/core/id"
	"spareparts/internal/core/types"
)

// Category groups spare parts.
type Category struct {
	ID          id.ID  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// Site is a station that owns stock.
type Site struct {
	ID   id.ID  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Part statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusObsolete = "obsolete"
)

// SparePart is one stocked item. Category is a display-only embed; CategoryID
// is the authoritative link.
type SparePart struct {
	ID              id.ID     `json:"id"`
	Name            string    `json:"name"`
	Model           string    `json:"model,omitempty"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	Supplier        string    `json:"supplier,omitempty"`
	SupplierCode    string    `json:"supplier_code,omitempty"`
	Quantity        int       `json:"quantity"`
	AlarmQty        *int      `json:"alarmQty,omitempty"`
	ProcurementDays *int      `json:"procurementDays,omitempty"`
	CategoryID      id.ID     `json:"categoryId,omitempty"`
	Category        *Category `json:"category,omitempty"`
	CategoryName    string    `json:"categoryName,omitempty"`
	Status          string    `json:"status,omitempty"`
	Site            string    `json:"site,omitempty"`
	StationID       id.ID     `json:"stationId,omitempty"`
	StationName     string    `json:"stationName,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	CreatedAt       string    `json:"created_at,omitempty"`
	UpdatedAt       string    `json:"updated_at,omitempty"`
}

// Transaction types.
const (
	TransactionIn  = "IN"
	TransactionOut = "OUT"
)

// PartRef is a transaction's spare_part field: either a bare id or an
// embedded part.
type PartRef struct {
	ID   id.ID
	Part *SparePart
}

// UnmarshalJSON accepts an id (number or string) or a part object.
func (r *PartRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var p SparePart
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("spare_part: %w", err)
		}
		r.ID, r.Part = p.ID, &p
		return nil
	}
	r.Part = nil
	return r.ID.UnmarshalJSON(data)
}

// MarshalJSON writes the embedded part when present, the id otherwise.
func (r PartRef) MarshalJSON() ([]byte, error) {
	if r.Part != nil {
		return json.Marshal(r.Part)
	}
	return r.ID.MarshalJSON()
}

// Transaction is one stock movement. Transactions are append-only.
type Transaction struct {
	ID                     id.ID        `json:"id"`
	SparePart              PartRef      `json:"spare_part"`
	SparePartName          string       `json:"spare_part_name,omitempty"`
	TransactionType        string       `json:"transaction_type"`
	TransactionTypeDisplay string       `json:"transaction_type_display,omitempty"`
	Quantity               int          `json:"quantity"`
	Reason                 string       `json:"reason,omitempty"`
	Remark                 string       `json:"remark,omitempty"`
	Operator               *OperatorRef `json:"operator,omitempty"`
	OperatorName           string       `json:"operator_name,omitempty"`
	CreatedAt              string       `json:"created_at"`
	Price                  *types.Money `json:"price,omitempty"`
}

// OperatorRef is the operator field: a user id or a user name.
type OperatorRef struct {
	Value string
}

// UnmarshalJSON accepts a number or a string.
func (o *OperatorRef) UnmarshalJSON(data []byte) error {
	var v id.ID
	if err := v.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("operator: %w", err)
	}
	o.Value = v.String()
	return nil
}

// MarshalJSON writes the operator as a string.
func (o OperatorRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

// Value returns the transaction value (price × quantity) when priced.
func (t Transaction) Value() (types.Money, bool) {
	if t.Price == nil {
		return types.Zero(), false
	}
	return types.LineTotal(*t.Price, t.Quantity), true
}

// MovementStats aggregates one direction of stock movement.
type MovementStats struct {
	Count    int `json:"count"`
	Quantity int `json:"quantity"`
}

// Statistics is the transaction summary for one part or for all parts.
type Statistics struct {
	TotalTransactions int           `json:"total_transactions"`
	In                MovementStats `json:"in"`
	Out               MovementStats `json:"out"`
}

// --- Inputs ---

// PartPayload is the body of a part create or update: a PartInput record or
// a PartForm multipart upload.
type PartPayload interface {
	isPartPayload()
}

// PartInput is a structured (partial) part record. Nil fields are omitted.
type PartInput struct {
	Name            *string `json:"name,omitempty"`
	Model           *string `json:"model,omitempty"`
	Description     *string `json:"description,omitempty"`
	Location        *string `json:"location,omitempty"`
	Supplier        *string `json:"supplier,omitempty"`
	SupplierCode    *string `json:"supplier_code,omitempty"`
	Quantity        *int    `json:"quantity,omitempty"`
	AlarmQty        *int    `json:"alarmQty,omitempty"`
	ProcurementDays *int    `json:"procurementDays,omitempty"`
	CategoryID      *id.ID  `json:"categoryId,omitempty"`
	SiteID          *id.ID  `json:"siteId,omitempty"`
	Status          *string `json:"status,omitempty"`
}

func (PartInput) isPartPayload() {}

// PartForm is a multipart part record carrying an image.
type PartForm struct {
	Fields    map[string]string
	ImageName string
	Image     io.Reader
}

func (PartForm) isPartPayload() {}

// CategoryInput creates a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// TransactionInput creates a stock movement. When SparePart is unset the
// backend finds or creates the part from the SparePartNameInput fields.
type TransactionInput struct {
	SparePart       id.ID        `json:"spare_part,omitempty"`
	TransactionType string       `json:"transaction_type"`
	Quantity        int          `json:"quantity"`
	Reason          string       `json:"reason,omitempty"`
	Remark          string       `json:"remark,omitempty"`
	Price           *types.Money `json:"price,omitempty"`

	SparePartNameInput  string `json:"spare_part_name_input,omitempty"`
	SparePartModel      string `json:"spare_part_model,omitempty"`
	SparePartLocation   string `json:"spare_part_location,omitempty"`
	SparePartCategoryID id.ID  `json:"spare_part_category_id,omitempty"`
	SparePartSiteID     id.ID  `json:"spare_part_site_id,omitempty"`
}

// --- Filters ---

// PartFilter selects spare parts. Zero fields are not sent.
type PartFilter struct {
	CategoryID id.ID
	SiteID     id.ID
	Status     string
	Search     string
	Page       int
	Limit      int
}

// Values encodes the filter as query parameters.
func (f PartFilter) Values() url.Values {
	v := url.Values{}
	setID(v, "category_id", f.CategoryID)
	setID(v, "site_id", f.SiteID)
	setString(v, "status", f.Status)
	setString(v, "search", f.Search)
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)
	return v
}

// TransactionFilter selects transactions. Dates are passed through verbatim.
type TransactionFilter struct {
	SparePartID     id.ID
	TransactionType string
	StartDate       string
	EndDate         string
	Page            int
	Limit           int
}

// Values encodes the filter as query parameters.
func (f TransactionFilter) Values() url.Values {
	v := url.Values{}
	setID(v, "spare_part_id", f.SparePartID)
	setString(v, "transaction_type", f.TransactionType)
	setString(v, "start_date", f.StartDate)
	setString(v, "end_date", f.EndDate)
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)
	return v
}

func setID(v url.Values, key string, value id.ID) {
	if !value.IsNil() {
		v.Set(key, value.String())
	}
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setInt(v url.Values, key string, value int) {
	if value > 0 {
		v.Set(key, strconv.Itoa(value))
	}
}
