// Package listshape normalizes the list payloads the backend emits.
//
// Depending on endpoint and pagination settings a collection arrives as
//
//	{"items": [...], "total": N}    paginated envelope data
//	{"results": [...], "count": N}  framework-default pagination
//	[...]                           bare sequence
//
// Decode tries an ordered list of arms and returns the page produced by the
// first arm that matches. What happens to a payload no arm recognizes is
// itself an arm (Empty or Retain), so every endpoint states its fallback
// explicitly.
package listshape

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Shape identifies which arm produced a Page.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeItems
	ShapeResults
	ShapeSequence
)

func (s Shape) String() string {
	switch s {
	case ShapeItems:
		return "items"
	case ShapeResults:
		return "results"
	case ShapeSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Page is the canonical form of a list response.
type Page[T any] struct {
	Items []T
	Total int
	Shape Shape
	// Retain is set by the Retain arm: the caller keeps its previous state.
	Retain bool
}

// ErrNoArm is returned when no arm matched and no fallback arm was given.
var ErrNoArm = errors.New("listshape: no arm matched payload")

// probe is the payload inspected once and shared by all arms.
type probe struct {
	raw    json.RawMessage
	array  bool
	fields map[string]json.RawMessage // nil unless the payload is an object
}

func (p *probe) field(name string) (json.RawMessage, bool) {
	v, ok := p.fields[name]
	if !ok || isNull(v) {
		return nil, false
	}
	return v, true
}

// Arm recognizes one payload shape.
type Arm[T any] struct {
	shape Shape
	match func(p *probe) (Page[T], bool, error)
}

// Shape returns the shape this arm produces.
func (a Arm[T]) Shape() Shape { return a.shape }

// Items matches {"items": [...], "total"?: N}. A missing total falls back to
// the number of items.
func Items[T any]() Arm[T] {
	return Arm[T]{shape: ShapeItems, match: func(p *probe) (Page[T], bool, error) {
		return keyed[T](p, ShapeItems, "items", "total")
	}}
}

// Results matches {"results": [...], "count"?: N}. A missing count falls
// back to the number of results.
func Results[T any]() Arm[T] {
	return Arm[T]{shape: ShapeResults, match: func(p *probe) (Page[T], bool, error) {
		return keyed[T](p, ShapeResults, "results", "count")
	}}
}

// Sequence matches a bare JSON array; total is its length.
func Sequence[T any]() Arm[T] {
	return Arm[T]{shape: ShapeSequence, match: func(p *probe) (Page[T], bool, error) {
		if !p.array {
			return Page[T]{}, false, nil
		}
		var items []T
		if err := json.Unmarshal(p.raw, &items); err != nil {
			return Page[T]{}, true, fmt.Errorf("decode sequence: %w", err)
		}
		if items == nil {
			items = []T{}
		}
		return Page[T]{Items: items, Total: len(items), Shape: ShapeSequence}, true, nil
	}}
}

// Empty matches anything and yields an empty page with zero total.
func Empty[T any]() Arm[T] {
	return Arm[T]{shape: ShapeUnknown, match: func(*probe) (Page[T], bool, error) {
		return Page[T]{Items: []T{}, Total: 0, Shape: ShapeUnknown}, true, nil
	}}
}

// Retain matches anything and tells the caller to keep its previous state.
func Retain[T any]() Arm[T] {
	return Arm[T]{shape: ShapeUnknown, match: func(*probe) (Page[T], bool, error) {
		return Page[T]{Shape: ShapeUnknown, Retain: true}, true, nil
	}}
}

// Decode runs arms in order against raw.
func Decode[T any](raw json.RawMessage, arms ...Arm[T]) (Page[T], error) {
	p, err := inspect(raw)
	if err != nil {
		return Page[T]{}, err
	}
	for _, arm := range arms {
		page, ok, err := arm.match(p)
		if err != nil {
			return Page[T]{}, err
		}
		if ok {
			return page, nil
		}
	}
	return Page[T]{}, ErrNoArm
}

func keyed[T any](p *probe, shape Shape, itemsKey, totalKey string) (Page[T], bool, error) {
	rawItems, ok := p.field(itemsKey)
	if !ok {
		return Page[T]{}, false, nil
	}
	var items []T
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return Page[T]{}, true, fmt.Errorf("decode %s: %w", itemsKey, err)
	}
	if items == nil {
		items = []T{}
	}
	total := len(items)
	if rawTotal, ok := p.field(totalKey); ok {
		if err := json.Unmarshal(rawTotal, &total); err != nil {
			return Page[T]{}, true, fmt.Errorf("decode %s: %w", totalKey, err)
		}
	}
	return Page[T]{Items: items, Total: total, Shape: shape}, true, nil
}

func inspect(raw json.RawMessage) (*probe, error) {
	trimmed := bytes.TrimSpace(raw)
	p := &probe{raw: trimmed}
	if len(trimmed) == 0 {
		return p, nil
	}
	switch trimmed[0] {
	case '[':
		p.array = true
	case '{':
		if err := json.Unmarshal(trimmed, &p.fields); err != nil {
			return nil, fmt.Errorf("inspect list payload: %w", err)
		}
	}
	return p, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
