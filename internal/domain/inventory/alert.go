package inventory

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// DefaultStockRule flags parts at or below their alarm quantity.
const DefaultStockRule = `has(part.alarmQty) && part.quantity <= part.alarmQty`

// StockRule is a compiled CEL predicate over a part. The part is exposed as
// the map variable `part` with the keys id, name, model, status, site,
// location, quantity, and (when set) alarmQty, procurementDays, categoryId.
type StockRule struct {
	expr string
	prg  cel.Program
}

// NewStockRule compiles expr. The expression must evaluate to a bool.
func NewStockRule(expr string) (*StockRule, error) {
	env, err := cel.NewEnv(
		cel.Variable("part", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile stock rule %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("stock rule %q must be boolean, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build stock rule program: %w", err)
	}
	return &StockRule{expr: expr, prg: prg}, nil
}

// String returns the rule source.
func (r *StockRule) String() string { return r.expr }

// Match evaluates the rule against p.
func (r *StockRule) Match(p SparePart) (bool, error) {
	out, _, err := r.prg.Eval(map[string]any{"part": partActivation(p)})
	if err != nil {
		return false, fmt.Errorf("evaluate stock rule on part %s: %w", p.ID, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("stock rule on part %s returned %T", p.ID, out.Value())
	}
	return matched, nil
}

// Select returns the parts matching the rule, in order.
func (r *StockRule) Select(parts []SparePart) ([]SparePart, error) {
	var out []SparePart
	for _, p := range parts {
		ok, err := r.Match(p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// LowStock applies rule to the cached parts page.
func (s *Store) LowStock(rule *StockRule) ([]SparePart, error) {
	return rule.Select(s.Parts())
}

func partActivation(p SparePart) map[string]any {
	m := map[string]any{
		"id":       p.ID.String(),
		"name":     p.Name,
		"model":    p.Model,
		"status":   p.Status,
		"site":     p.Site,
		"location": p.Location,
		"quantity": int64(p.Quantity),
	}
	if p.AlarmQty != nil {
		m["alarmQty"] = int64(*p.AlarmQty)
	}
	if p.ProcurementDays != nil {
		m["procurementDays"] = int64(*p.ProcurementDays)
	}
	if !p.CategoryID.IsNil() {
		m["categoryId"] = p.CategoryID.String()
	}
	return m
}
