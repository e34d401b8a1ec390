package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"spareparts/internal/core/id"
	"spareparts/internal/core/token"
	"spareparts/internal/core/types"
	"spareparts/internal/domain/inventory"
	"spareparts/internal/domain/session"
)

// EnvPassword is read by login when -p is not given.
const EnvPassword = "SPAREPARTS_PASSWORD"

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// partFlags are the list filters shared by parts and low-stock.
type partFlags struct {
	category, site, status, search string
	page, limit                    int
}

func addPartFlags(fs *flag.FlagSet) *partFlags {
	f := &partFlags{}
	fs.StringVar(&f.category, "category", "", "category id")
	fs.StringVar(&f.site, "site", "", "site id")
	fs.StringVar(&f.status, "status", "", "active, inactive or obsolete")
	fs.StringVar(&f.search, "search", "", "match name or model")
	fs.IntVar(&f.page, "page", 0, "page number")
	fs.IntVar(&f.limit, "limit", 0, "page size")
	return f
}

func (f *partFlags) filter() inventory.PartFilter {
	return inventory.PartFilter{
		CategoryID: id.ID(f.category),
		SiteID:     id.ID(f.site),
		Status:     f.status,
		Search:     f.search,
		Page:       f.page,
		Limit:      f.limit,
	}
}

func partArg(fs *flag.FlagSet) (id.ID, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s takes exactly one part id", fs.Name())
	}
	return id.Parse(fs.Arg(0))
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (default $"+EnvPassword+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv(EnvPassword)
	}
	if *username == "" || *password == "" {
		return errors.New("login needs -u USER and -p PASSWORD")
	}

	if err := a.state.Delete(ctx, selectedStationKey); err != nil {
		return err
	}
	u, err := a.session.Login(ctx, session.Credentials{Username: *username, Password: *password})
	if err != nil {
		return err
	}
	if station := a.session.SelectedStation(); station != "" {
		if err := a.state.Save(ctx, selectedStationKey, station); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "signed in as %s\n", describeUser(u))
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	if err := a.state.Delete(ctx, selectedStationKey); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	u, err := a.restore(ctx)
	if err != nil {
		return err
	}
	w := newTable(a.out)
	w.row("user", describeUser(u))
	w.row("email", u.Email)
	w.row("station", a.session.SelectedStation())
	w.row("view", string(a.session.CurrentViewType()))
	w.row("permissions", permissions(u))
	if info, ok, err := a.session.TokenInfo(ctx); err == nil && ok && !info.ExpiresAt.IsZero() {
		w.row("token expires", info.ExpiresAt.Local().Format(time.RFC1123))
	}
	return w.flush()
}

func cmdStation(ctx context.Context, a *app, args []string) error {
	if _, err := a.restore(ctx); err != nil {
		return err
	}
	if len(args) > 0 {
		station := strings.Join(args, " ")
		a.session.SetSelectedStation(station)
		if err := a.state.Save(ctx, selectedStationKey, station); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "%s (%s)\n", a.session.SelectedStation(), a.session.CurrentViewType())
	return nil
}

func cmdSites(ctx context.Context, a *app, _ []string) error {
	if _, err := a.restore(ctx); err != nil {
		return err
	}
	sites, err := a.inventory.FetchSites(ctx)
	if err != nil {
		return err
	}
	w := newTable(a.out)
	w.row("ID", "NAME", "CODE")
	for _, s := range sites {
		w.row(s.ID.String(), s.Name, s.Code)
	}
	return w.flush()
}

func cmdCategories(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("categories")
	name := fs.String("name", "", "new category name")
	code := fs.String("code", "", "new category code")
	description := fs.String("description", "", "new category description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.restore(ctx); err != nil {
		return err
	}

	if *name != "" || *code != "" {
		c, err := a.inventory.CreateCategory(ctx, inventory.CategoryInput{Name: *name, Code: *code, Description: *description})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "created category %s %s (%s)\n", c.ID, c.Name, c.Code)
		return nil
	}

	categories, err := a.inventory.FetchCategories(ctx)
	if err != nil {
		return err
	}
	w := newTable(a.out)
	w.row("ID", "CODE", "NAME", "DESCRIPTION")
	for _, c := range categories {
		w.row(c.ID.String(), c.Code, c.Name, c.Description)
	}
	return w.flush()
}

func cmdParts(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("parts")
	pf := addPartFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.restore(ctx); err != nil {
		return err
	}
	parts, err := a.inventory.FetchParts(ctx, pf.filter())
	if err != nil {
		return err
	}
	if err := printParts(a.out, parts); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d of %d parts\n", len(parts), a.inventory.Total())
	return nil
}

func cmdPart(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("part")
	if err := fs.Parse(args); err != nil {
		return err
	}
	partID, err := partArg(fs)
	if err != nil {
		return err
	}
	if _, err := a.restore(ctx); err != nil {
		return err
	}
	p, err := a.inventory.GetPart(ctx, partID)
	if err != nil {
		return err
	}

	w := newTable(a.out)
	w.row("id", p.ID.String())
	w.row("name", p.Name)
	w.row("model", p.Model)
	w.row("category", p.CategoryName)
	w.row("station", p.StationName)
	w.row("location", p.Location)
	w.row("quantity", strconv.Itoa(p.Quantity))
	w.row("alarm at", optInt(p.AlarmQty))
	w.row("procurement days", optInt(p.ProcurementDays))
	w.row("status", p.Status)
	if p.Supplier != "" {
		w.row("supplier", strings.TrimSpace(p.Supplier+" "+p.SupplierCode))
	}
	if p.Description != "" {
		w.row("description", p.Description)
	}
	if p.ImageURL != "" {
		w.row("image", a.client.MediaURL(p.ImageURL))
	}
	return w.flush()
}

func cmdHistory(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("history")
	if err := fs.Parse(args); err != nil {
		return err
	}
	partID, err := partArg(fs)
	if err != nil {
		return err
	}
	if _, err := a.restore(ctx); err != nil {
		return err
	}
	txs, err := a.inventory.FetchTransactions(ctx, partID)
	if err != nil {
		return err
	}

	w := newTable(a.out)
	w.row("ID", "DATE", "TYPE", "QTY", "OPERATOR", "REASON", "VALUE")
	for _, t := range txs {
		value := ""
		if v, ok := t.Value(); ok {
			value = v.StringFixed(2)
		}
		w.row(t.ID.String(), t.CreatedAt, t.TransactionType, strconv.Itoa(t.Quantity), t.OperatorName, t.Reason, value)
	}
	return w.flush()
}

func cmdStock(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("stock")
	part := fs.String("part", "", "part id")
	kind := fs.String("type", "", "in or out")
	qty := fs.Int("qty", 0, "quantity")
	reason := fs.String("reason", "", "reason")
	remark := fs.String("remark", "", "remark")
	price := fs.String("price", "", "unit price")
	name := fs.String("name", "", "part name, to find or create the part by name")
	model := fs.String("model", "", "model of a part created by name")
	location := fs.String("location", "", "location of a part created by name")
	category := fs.String("category", "", "category id of a part created by name")
	site := fs.String("site", "", "site id of a part created by name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := inventory.TransactionInput{
		SparePart:           id.ID(*part),
		TransactionType:     strings.ToUpper(*kind),
		Quantity:            *qty,
		Reason:              *reason,
		Remark:              *remark,
		SparePartNameInput:  *name,
		SparePartModel:      *model,
		SparePartLocation:   *location,
		SparePartCategoryID: id.ID(*category),
		SparePartSiteID:     id.ID(*site),
	}
	switch {
	case in.TransactionType != inventory.TransactionIn && in.TransactionType != inventory.TransactionOut:
		return errors.New("stock needs -type in or -type out")
	case in.Quantity <= 0:
		return errors.New("stock needs a positive -qty")
	case in.SparePart.IsNil() && in.SparePartNameInput == "":
		return errors.New("stock needs -part ID or -name NAME")
	}
	if *price != "" {
		m, err := types.NewMoneyFromString(*price)
		if err != nil {
			return fmt.Errorf("invalid -price %q: %w", *price, err)
		}
		in.Price = &m
	}

	if _, err := a.restore(ctx); err != nil {
		return err
	}
	tx, err := a.inventory.CreateTransaction(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "recorded %s %d of part %s", tx.TransactionType, tx.Quantity, tx.SparePart.ID)
	if p := a.inventory.CurrentPart(); p != nil && p.ID == tx.SparePart.ID {
		fmt.Fprintf(a.out, " (%s, now %d in stock)", p.Name, p.Quantity)
	}
	fmt.Fprintln(a.out)
	return nil
}

func cmdStats(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("stats")
	part := fs.String("part", "", "part id (all parts when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.restore(ctx); err != nil {
		return err
	}
	st, err := a.inventory.Statistics(ctx, id.ID(*part))
	if err != nil {
		return err
	}

	w := newTable(a.out)
	w.row("", "COUNT", "QUANTITY")
	w.row("in", strconv.Itoa(st.In.Count), strconv.Itoa(st.In.Quantity))
	w.row("out", strconv.Itoa(st.Out.Count), strconv.Itoa(st.Out.Quantity))
	w.row("total", strconv.Itoa(st.TotalTransactions), "")
	return w.flush()
}

func cmdLowStock(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("low-stock")
	pf := addPartFlags(fs)
	expr := fs.String("rule", a.cfg.StockRule, "CEL predicate over part")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rule, err := inventory.NewStockRule(*expr)
	if err != nil {
		return err
	}
	if _, err := a.restore(ctx); err != nil {
		return err
	}
	if _, err := a.inventory.FetchParts(ctx, pf.filter()); err != nil {
		return err
	}
	low, err := a.inventory.LowStock(rule)
	if err != nil {
		return err
	}
	if len(low) == 0 {
		fmt.Fprintln(a.out, "no parts match", rule)
		return nil
	}
	return printParts(a.out, low)
}

func cmdState(ctx context.Context, a *app, _ []string) error {
	entries, err := a.state.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "no local state")
		return nil
	}
	w := newTable(a.out)
	w.row("KEY", "VALUE", "UPDATED")
	for _, e := range entries {
		value := e.Value
		if e.Key == token.StorageKey {
			value = maskToken(value)
		}
		w.row(e.Key, value, e.Updated().Local().Format(time.DateTime))
	}
	return w.flush()
}
