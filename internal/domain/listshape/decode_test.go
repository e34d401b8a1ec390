package listshape

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID int `json:"id"`
}

func partsArms() []Arm[row] {
	return []Arm[row]{Items[row](), Results[row](), Sequence[row](), Empty[row]()}
}

func TestDecode_PartsArms(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantIDs   []int
		wantTotal int
		wantShape Shape
	}{
		{
			name:      "items with total",
			payload:   `{"items":[{"id":1},{"id":2}],"total":40,"page":1,"limit":20}`,
			wantIDs:   []int{1, 2},
			wantTotal: 40,
			wantShape: ShapeItems,
		},
		{
			name:      "items without total",
			payload:   `{"items":[{"id":1},{"id":2},{"id":3}]}`,
			wantIDs:   []int{1, 2, 3},
			wantTotal: 3,
			wantShape: ShapeItems,
		},
		{
			name:      "items with null total",
			payload:   `{"items":[{"id":4}],"total":null}`,
			wantIDs:   []int{4},
			wantTotal: 1,
			wantShape: ShapeItems,
		},
		{
			name:      "items win over results",
			payload:   `{"items":[{"id":1}],"total":9,"results":[{"id":2}],"count":7}`,
			wantIDs:   []int{1},
			wantTotal: 9,
			wantShape: ShapeItems,
		},
		{
			name:      "results with count",
			payload:   `{"count":12,"next":null,"previous":null,"results":[{"id":5}]}`,
			wantIDs:   []int{5},
			wantTotal: 12,
			wantShape: ShapeResults,
		},
		{
			name:      "results without count",
			payload:   `{"results":[{"id":5},{"id":6}]}`,
			wantIDs:   []int{5, 6},
			wantTotal: 2,
			wantShape: ShapeResults,
		},
		{
			name:      "bare sequence",
			payload:   `[{"id":7},{"id":8}]`,
			wantIDs:   []int{7, 8},
			wantTotal: 2,
			wantShape: ShapeSequence,
		},
		{
			name:      "empty sequence",
			payload:   `[]`,
			wantIDs:   []int{},
			wantTotal: 0,
			wantShape: ShapeSequence,
		},
		{
			name:      "unknown object",
			payload:   `{"message":"success"}`,
			wantIDs:   []int{},
			wantTotal: 0,
			wantShape: ShapeUnknown,
		},
		{
			name:      "scalar",
			payload:   `true`,
			wantIDs:   []int{},
			wantTotal: 0,
			wantShape: ShapeUnknown,
		},
		{
			name:      "null",
			payload:   `null`,
			wantIDs:   []int{},
			wantTotal: 0,
			wantShape: ShapeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Decode(json.RawMessage(tt.payload), partsArms()...)
			require.NoError(t, err)

			ids := make([]int, 0, len(page.Items))
			for _, r := range page.Items {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantShape, page.Shape)
			assert.False(t, page.Retain)
		})
	}
}

func TestDecode_RetainArm(t *testing.T) {
	page, err := Decode(json.RawMessage(`{"detail":"x"}`), Results[row](), Sequence[row](), Retain[row]())
	require.NoError(t, err)
	assert.True(t, page.Retain)
	assert.Nil(t, page.Items)
	assert.Equal(t, ShapeUnknown, page.Shape)
}

func TestDecode_CollectionArmsIgnoreItems(t *testing.T) {
	// Categories and sites do not know the items shape.
	page, err := Decode(json.RawMessage(`{"items":[{"id":1}]}`), Sequence[row](), Results[row](), Empty[row]())
	require.NoError(t, err)
	assert.Equal(t, ShapeUnknown, page.Shape)
	assert.Empty(t, page.Items)
}

func TestDecode_NoFallback(t *testing.T) {
	_, err := Decode(json.RawMessage(`{"x":1}`), Items[row]())
	assert.ErrorIs(t, err, ErrNoArm)
}

func TestDecode_MalformedItems(t *testing.T) {
	_, err := Decode(json.RawMessage(`{"items":"nope"}`), partsArms()...)
	assert.Error(t, err)
}
