package mockapi

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"spareparts/internal/core/apperror"
	"spareparts/internal/core/id"
	"spareparts/internal/domain/inventory"
)

// --- Categories ---

// Categories returns the active categories ordered by code.
func (b *Backend) Categories() []inventory.Category {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []inventory.Category{}
	for _, c := range b.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// CreateCategory adds a category. Name and code are required and unique.
func (b *Backend) CreateCategory(in inventory.CategoryInput) (inventory.Category, error) {
	name, code := strings.TrimSpace(in.Name), strings.TrimSpace(in.Code)
	if name == "" || code == "" {
		return inventory.Category{}, apperror.NewValidation("name and code are required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.categories {
		if c.Name == name || c.Code == code {
			return inventory.Category{}, apperror.NewValidation("category with this name or code already exists").
				WithDetail("name", name).
				WithDetail("code", code)
		}
	}

	c := inventory.Category{
		ID:          b.nextID("category"),
		Name:        name,
		Code:        code,
		Description: in.Description,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	b.categories = append(b.categories, c)
	sort.Slice(b.categories, func(i, j int) bool { return b.categories[i].Code < b.categories[j].Code })
	return c, nil
}

// --- Spare parts ---

// ListParts returns one page of the parts visible to u and the number of
// parts matching filter. Users who cannot view all sites only see their own
// site's parts.
func (b *Backend) ListParts(u *User, filter inventory.PartFilter) ([]inventory.SparePart, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var matched []inventory.SparePart
	for _, p := range b.parts {
		switch {
		case !filter.CategoryID.IsNil() && p.CategoryID != filter.CategoryID:
			continue
		case !filter.SiteID.IsNil() && p.StationID != filter.SiteID:
			continue
		case !u.CanViewAllSites && !u.SiteID.IsNil() && p.StationID != u.SiteID:
			continue
		case filter.Status != "" && p.Status != filter.Status:
			continue
		case search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Model), search):
			continue
		}
		matched = append(matched, b.present(*p))
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].StationName != matched[j].StationName {
			return matched[i].StationName < matched[j].StationName
		}
		return matched[i].Name < matched[j].Name
	})
	return paginate(matched, filter.Page, filter.Limit), len(matched)
}

// Part returns one part.
func (b *Backend) Part(partID id.ID) (inventory.SparePart, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.parts[partID]
	if !ok {
		return inventory.SparePart{}, apperror.NewNotFound("spare part", partID)
	}
	return b.present(*p), nil
}

// CreatePart adds a part to the site named by in.SiteID, or to u's site.
func (b *Backend) CreatePart(u *User, in inventory.PartInput) (inventory.SparePart, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	siteID := u.SiteID
	if in.SiteID != nil && !in.SiteID.IsNil() {
		siteID = *in.SiteID
	}
	if siteID.IsNil() {
		return inventory.SparePart{}, apperror.NewValidation("no site specified and the current user has no site")
	}
	if _, ok := b.site(siteID); !ok {
		return inventory.SparePart{}, apperror.NewNotFound("site", siteID)
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return inventory.SparePart{}, apperror.NewValidation("name is required").WithDetail("field", "name")
	}

	alarm, days := DefaultAlarmQty, DefaultProcurementDays
	p := inventory.SparePart{
		Name:            strings.TrimSpace(*in.Name),
		Model:           DefaultModel,
		Status:          inventory.StatusActive,
		StationID:       siteID,
		AlarmQty:        &alarm,
		ProcurementDays: &days,
	}
	if err := b.apply(&p, in); err != nil {
		return inventory.SparePart{}, err
	}
	if b.nameTaken(p.Name, siteID, "") {
		return inventory.SparePart{}, apperror.NewValidation("a part with this name already exists at this site")
	}

	p.ID = b.nextID("part")
	p.CreatedAt = b.timestamp()
	p.UpdatedAt = p.CreatedAt
	b.parts[p.ID] = &p
	return b.present(p), nil
}

// UpdatePart applies the non-nil fields of in.
func (b *Backend) UpdatePart(partID id.ID, in inventory.PartInput) (inventory.SparePart, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, ok := b.parts[partID]
	if !ok {
		return inventory.SparePart{}, apperror.NewNotFound("spare part", partID)
	}
	p := *existing
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
		if p.Name == "" {
			return inventory.SparePart{}, apperror.NewValidation("name may not be blank").WithDetail("field", "name")
		}
	}
	if err := b.apply(&p, in); err != nil {
		return inventory.SparePart{}, err
	}
	if b.nameTaken(p.Name, p.StationID, p.ID) {
		return inventory.SparePart{}, apperror.NewValidation("a part with this name already exists at this site")
	}

	p.UpdatedAt = b.timestamp()
	*existing = p
	return b.present(p), nil
}

// DeletePart removes a part together with its transactions.
func (b *Backend) DeletePart(partID id.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.parts[partID]; !ok {
		return apperror.NewNotFound("spare part", partID)
	}
	delete(b.parts, partID)

	kept := b.transactions[:0]
	for _, t := range b.transactions {
		if t.SparePart.ID != partID {
			kept = append(kept, t)
		}
	}
	b.transactions = kept
	return nil
}

// SetPartImage stores an uploaded image and links it to the part.
func (b *Backend) SetPartImage(partID id.ID, filename string, data []byte) (inventory.SparePart, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.parts[partID]
	if !ok {
		return inventory.SparePart{}, apperror.NewNotFound("spare part", partID)
	}
	name := fmt.Sprintf("%s_%s", partID, path.Base(filename))
	b.images[name] = data
	p.ImageURL = MediaPrefix + name
	return b.present(*p), nil
}

// Image returns an uploaded image by file name.
func (b *Backend) Image(name string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.images[name]
	return data, ok
}

// apply copies the optional fields of in onto p. mu must be held.
func (b *Backend) apply(p *inventory.SparePart, in inventory.PartInput) error {
	setString(&p.Model, in.Model)
	setString(&p.Description, in.Description)
	setString(&p.Location, in.Location)
	setString(&p.Supplier, in.Supplier)
	setString(&p.SupplierCode, in.SupplierCode)

	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return apperror.NewValidation("quantity must not be negative").WithDetail("field", "quantity")
		}
		p.Quantity = *in.Quantity
	}
	if in.AlarmQty != nil {
		if *in.AlarmQty < 0 {
			return apperror.NewValidation("alarmQty must not be negative").WithDetail("field", "alarmQty")
		}
		v := *in.AlarmQty
		p.AlarmQty = &v
	}
	if in.ProcurementDays != nil {
		v := *in.ProcurementDays
		p.ProcurementDays = &v
	}
	if in.Status != nil {
		switch *in.Status {
		case inventory.StatusActive, inventory.StatusInactive, inventory.StatusObsolete:
			p.Status = *in.Status
		default:
			return apperror.NewValidation(fmt.Sprintf("%q is not a valid status", *in.Status)).WithDetail("field", "status")
		}
	}
	if in.CategoryID != nil {
		if !in.CategoryID.IsNil() {
			if _, ok := b.category(*in.CategoryID); !ok {
				return apperror.NewValidation(fmt.Sprintf("category %s does not exist", *in.CategoryID)).WithDetail("field", "categoryId")
			}
		}
		p.CategoryID = *in.CategoryID
	}
	return nil
}

// nameTaken must be called with mu held.
func (b *Backend) nameTaken(name string, siteID, except id.ID) bool {
	for _, p := range b.parts {
		if p.ID != except && p.StationID == siteID && p.Name == name {
			return true
		}
	}
	return false
}

// present fills the read-only display fields of p. mu must be held.
func (b *Backend) present(p inventory.SparePart) inventory.SparePart {
	if s, ok := b.site(p.StationID); ok {
		p.Site = s.Name
		p.StationName = s.Name
	}
	p.Category = nil
	p.CategoryName = UncategorizedName
	if c, ok := b.category(p.CategoryID); ok {
		p.Category = &c
		p.CategoryName = c.Name
	}
	return p
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
