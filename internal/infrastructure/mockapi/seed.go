package mockapi

import (
	"fmt"

	"spareparts/internal/core/id"
	"spareparts/internal/domain/inventory"
)

// Demo accounts created by Seed. Passwords equal "<username>123".
const (
	SeedAdmin    = "admin"
	SeedOperator = "wang"
	SeedViewer   = "li"
)

// Seed fills an empty backend with two sites, three categories, a handful
// of parts and the transactions that produced their stock.
func (b *Backend) Seed() error {
	wind := b.AddSite("Wind Farm 1", "WF01")
	solar := b.AddSite("Solar Plant 2", "SP02")

	users := []struct {
		user     User
		password string
	}{
		{User{Username: SeedAdmin, Email: "admin@example.com", IsActive: true, CanViewAllSites: true, CanManageUsers: true, CanEditOwnSite: true}, SeedAdmin + "123"},
		{User{Username: SeedOperator, Email: "wang@example.com", SiteID: wind.ID, IsActive: true, CanEditOwnSite: true}, SeedOperator + "123"},
		{User{Username: SeedViewer, Email: "li@example.com", SiteID: solar.ID, IsActive: true}, SeedViewer + "123"},
	}
	var operator *User
	for _, u := range users {
		created, err := b.AddUser(u.user, u.password)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.user.Username, err)
		}
		if created.Username == SeedOperator {
			operator = created
		}
	}

	categories := map[string]id.ID{}
	for _, c := range []inventory.CategoryInput{
		{Name: "Bearings", Code: "BRG", Description: "Main shaft and generator bearings"},
		{Name: "Seals", Code: "SEL"},
		{Name: "Electrical", Code: "ELE", Description: "Contactors, fuses and relays"},
	} {
		created, err := b.CreateCategory(c)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.Code, err)
		}
		categories[c.Code] = created.ID
	}

	parts := []struct {
		name, model, location, category string
		site                            inventory.Site
		alarm, stockIn, stockOut        int
	}{
		{"Main bearing", "SKF 240/600", "Rack A-1", "BRG", wind, 2, 4, 1},
		{"Generator bearing", "FAG 6330", "Rack A-2", "BRG", wind, 3, 3, 1},
		{"Yaw seal", "YS-90", "Rack B-4", "SEL", wind, 5, 12, 2},
		{"Pitch contactor", "ABB AF09", "Cabinet 3", "ELE", wind, 4, 2, 0},
		{"Inverter fuse", "Bussmann 170M", "Drawer 7", "ELE", solar, 10, 30, 4},
		{"Combiner box seal", "CBS-2", "Drawer 2", "SEL", solar, 5, 0, 0},
	}
	for _, sp := range parts {
		name, model, location := sp.name, sp.model, sp.location
		categoryID, siteID, alarm := categories[sp.category], sp.site.ID, sp.alarm
		p, err := b.CreatePart(operator, inventory.PartInput{
			Name:       &name,
			Model:      &model,
			Location:   &location,
			CategoryID: &categoryID,
			SiteID:     &siteID,
			AlarmQty:   &alarm,
		})
		if err != nil {
			return fmt.Errorf("seed part %s: %w", sp.name, err)
		}
		moves := []struct {
			kind string
			qty  int
		}{{inventory.TransactionIn, sp.stockIn}, {inventory.TransactionOut, sp.stockOut}}
		for _, m := range moves {
			if m.qty == 0 {
				continue
			}
			if _, err := b.CreateTransaction(operator, inventory.TransactionInput{
				SparePart:       p.ID,
				TransactionType: m.kind,
				Quantity:        m.qty,
				Reason:          "initial stock",
			}); err != nil {
				return fmt.Errorf("seed stock of %s: %w", sp.name, err)
			}
		}
	}
	return nil
}
