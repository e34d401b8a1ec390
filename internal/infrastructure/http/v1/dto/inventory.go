package dto

import (
	"fmt"
	"strconv"

	"spareparts/internal/core/apperror"
	"spareparts/internal/core/id"
	"spareparts/internal/domain/inventory"
)

// PartListQuery is the query string of GET /spare-parts/.
type PartListQuery struct {
	PageRequest
	CategoryID string `form:"category_id"`
	SiteID     string `form:"site_id"`
	Status     string `form:"status" binding:"omitempty,oneof=active inactive obsolete"`
	Search     string `form:"search"`
}

// ToFilter converts the query to a part filter.
func (q PartListQuery) ToFilter() inventory.PartFilter {
	return inventory.PartFilter{
		CategoryID: id.ID(q.CategoryID),
		SiteID:     id.ID(q.SiteID),
		Status:     q.Status,
		Search:     q.Search,
		Page:       q.Page,
		Limit:      q.Limit,
	}
}

// CategoryRequest creates a category.
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// ToInput converts to the domain input.
func (r CategoryRequest) ToInput() inventory.CategoryInput {
	return inventory.CategoryInput{Name: r.Name, Code: r.Code, Description: r.Description, IsActive: r.IsActive}
}

// PartFromForm reads a part record from multipart form fields. Fields are
// named as in the JSON body.
func PartFromForm(form map[string][]string) (inventory.PartInput, error) {
	var in inventory.PartInput
	str := func(key string) *string {
		if v, ok := form[key]; ok && len(v) > 0 {
			s := v[0]
			return &s
		}
		return nil
	}
	num := func(key string) (*int, error) {
		s := str(key)
		if s == nil || *s == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(*s)
		if err != nil {
			return nil, apperror.NewValidation(fmt.Sprintf("%s must be an integer", key)).WithDetail("field", key)
		}
		return &n, nil
	}
	ref := func(key string) *id.ID {
		if s := str(key); s != nil {
			v := id.ID(*s)
			return &v
		}
		return nil
	}

	in.Name = str("name")
	in.Model = str("model")
	in.Description = str("description")
	in.Location = str("location")
	in.Supplier = str("supplier")
	in.SupplierCode = str("supplier_code")
	in.Status = str("status")
	in.CategoryID = ref("categoryId")
	in.SiteID = ref("siteId")

	var err error
	if in.Quantity, err = num("quantity"); err != nil {
		return in, err
	}
	if in.AlarmQty, err = num("alarmQty"); err != nil {
		return in, err
	}
	if in.ProcurementDays, err = num("procurementDays"); err != nil {
		return in, err
	}
	return in, nil
}
