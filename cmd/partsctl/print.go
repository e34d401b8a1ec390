package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"spareparts/internal/domain/inventory"
	"spareparts/internal/domain/session"
)

type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer) *table {
	return &table{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

func printParts(w io.Writer, parts []inventory.SparePart) error {
	t := newTable(w)
	t.row("ID", "NAME", "MODEL", "QTY", "ALARM", "LOCATION", "STATION", "CATEGORY")
	for _, p := range parts {
		t.row(p.ID.String(), p.Name, p.Model, strconv.Itoa(p.Quantity), optInt(p.AlarmQty), p.Location, p.StationName, p.CategoryName)
	}
	return t.flush()
}

func describeUser(u *session.User) string {
	if u.Site == "" {
		return u.Username
	}
	return fmt.Sprintf("%s (%s)", u.Username, u.Site)
}

func permissions(u *session.User) string {
	var out []string
	if u.CanEditOwnSite {
		out = append(out, "edit own site")
	}
	if u.CanViewAllSites {
		out = append(out, "view all sites")
	}
	if u.CanManageUsers {
		out = append(out, "manage users")
	}
	if len(out) == 0 {
		return "read only"
	}
	return strings.Join(out, ", ")
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// maskToken keeps only a short prefix of a bearer token.
func maskToken(tok string) string {
	if len(tok) <= 8 {
		return "********"
	}
	return tok[:8] + "..."
}
