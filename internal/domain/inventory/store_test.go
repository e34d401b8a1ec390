package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spareparts/internal/core/apperror"
	"spareparts/internal/core/id"
	"spareparts/internal/core/types"
	"spareparts/internal/domain/listshape"
	"spareparts/pkg/logger"
)

// fakeAPI serves canned payloads and records the order of calls.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	sites        func() (json.RawMessage, error)
	categories   func() (json.RawMessage, error)
	parts        func(PartFilter) (json.RawMessage, error)
	part         func(id.ID) (json.RawMessage, error)
	create       func(PartPayload) (json.RawMessage, error)
	deleteErr    error
	ledger       func(TransactionFilter) (json.RawMessage, error)
	history      func(id.ID) (json.RawMessage, error)
	createTx     func(TransactionInput) (json.RawMessage, error)
	statistics   func(id.ID) (json.RawMessage, error)
	lastCategory CategoryInput
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) Sites(context.Context) (json.RawMessage, error) {
	f.record("sites")
	return f.sites()
}

func (f *fakeAPI) Categories(context.Context) (json.RawMessage, error) {
	f.record("categories")
	return f.categories()
}

func (f *fakeAPI) CreateCategory(_ context.Context, in CategoryInput) (json.RawMessage, error) {
	f.record("create_category")
	f.lastCategory = in
	return json.RawMessage(`{"id":9,"name":"` + in.Name + `","code":"` + in.Code + `","is_active":true}`), nil
}

func (f *fakeAPI) SpareParts(_ context.Context, filter PartFilter) (json.RawMessage, error) {
	f.record("parts")
	return f.parts(filter)
}

func (f *fakeAPI) SparePart(_ context.Context, partID id.ID) (json.RawMessage, error) {
	f.record("part:" + partID.String())
	return f.part(partID)
}

func (f *fakeAPI) CreateSparePart(_ context.Context, payload PartPayload) (json.RawMessage, error) {
	f.record("create_part")
	return f.create(payload)
}

func (f *fakeAPI) UpdateSparePart(_ context.Context, partID id.ID, payload PartPayload) (json.RawMessage, error) {
	f.record("update_part:" + partID.String())
	return f.create(payload)
}

func (f *fakeAPI) DeleteSparePart(_ context.Context, partID id.ID) error {
	f.record("delete_part:" + partID.String())
	return f.deleteErr
}

func (f *fakeAPI) Transactions(_ context.Context, filter TransactionFilter) (json.RawMessage, error) {
	f.record("transactions")
	return f.ledger(filter)
}

func (f *fakeAPI) TransactionsByPart(_ context.Context, partID id.ID) (json.RawMessage, error) {
	f.record("history:" + partID.String())
	return f.history(partID)
}

func (f *fakeAPI) CreateTransaction(_ context.Context, in TransactionInput) (json.RawMessage, error) {
	f.record("create_transaction")
	return f.createTx(in)
}

func (f *fakeAPI) TransactionStatistics(_ context.Context, partID id.ID) (json.RawMessage, error) {
	f.record("statistics:" + partID.String())
	return f.statistics(partID)
}

func raw(s string) func() (json.RawMessage, error) {
	return func() (json.RawMessage, error) { return json.RawMessage(s), nil }
}

func partsPayload(s string) func(PartFilter) (json.RawMessage, error) {
	return func(PartFilter) (json.RawMessage, error) { return json.RawMessage(s), nil }
}

func newTestStore(api *fakeAPI) *Store {
	return NewStore(api, logger.Nop())
}

func partIDs(parts []SparePart) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.ID.String())
	}
	return out
}

func TestFetchParts_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantIDs   []string
		wantTotal int
	}{
		{
			name:      "items with total",
			payload:   `{"items":[{"id":1,"name":"Bearing","quantity":3}],"total":5}`,
			wantIDs:   []string{"1"},
			wantTotal: 5,
		},
		{
			name:      "items without total",
			payload:   `{"items":[{"id":1,"name":"a","quantity":1},{"id":2,"name":"b","quantity":1}]}`,
			wantIDs:   []string{"1", "2"},
			wantTotal: 2,
		},
		{
			name:      "items with zero total",
			payload:   `{"items":[{"id":1,"name":"a","quantity":1}],"total":0}`,
			wantIDs:   []string{"1"},
			wantTotal: 0,
		},
		{
			name:      "results with count",
			payload:   `{"results":[{"id":7,"name":"Seal","quantity":0}],"count":12}`,
			wantIDs:   []string{"7"},
			wantTotal: 12,
		},
		{
			name:      "bare array",
			payload:   `[{"id":1,"name":"a","quantity":1},{"id":2,"name":"b","quantity":1},{"id":3,"name":"c","quantity":1}]`,
			wantIDs:   []string{"1", "2", "3"},
			wantTotal: 3,
		},
		{
			name:      "unrecognized object",
			payload:   `{"foo":"bar"}`,
			wantIDs:   []string{},
			wantTotal: 0,
		},
		{
			name:      "null",
			payload:   `null`,
			wantIDs:   []string{},
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(&fakeAPI{parts: partsPayload(tt.payload)})

			got, err := s.FetchParts(context.Background(), PartFilter{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantIDs, partIDs(got))
			assert.Equal(t, tt.wantIDs, partIDs(s.Parts()))
			assert.Equal(t, tt.wantTotal, s.Total())
			assert.False(t, s.Loading())
		})
	}
}

func TestFetchParts_ReplacesWholesale(t *testing.T) {
	payload := `[{"id":1,"name":"a","quantity":1},{"id":2,"name":"b","quantity":1}]`
	api := &fakeAPI{parts: func(PartFilter) (json.RawMessage, error) { return json.RawMessage(payload), nil }}
	s := newTestStore(api)

	_, err := s.FetchParts(context.Background(), PartFilter{})
	require.NoError(t, err)
	require.Len(t, s.Parts(), 2)

	payload = `{"items":[{"id":3,"name":"c","quantity":1}],"total":1}`
	_, err = s.FetchParts(context.Background(), PartFilter{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, partIDs(s.Parts()))
	assert.Equal(t, 1, s.Total())
}

func TestFetchParts_PassesFilter(t *testing.T) {
	var got PartFilter
	api := &fakeAPI{parts: func(f PartFilter) (json.RawMessage, error) {
		got = f
		return json.RawMessage(`[]`), nil
	}}
	s := newTestStore(api)

	filter := PartFilter{CategoryID: "4", Search: "bearing", Page: 2, Limit: 20}
	_, err := s.FetchParts(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, filter, got)
	assert.Equal(t, "category_id=4&limit=20&page=2&search=bearing", got.Values().Encode())
}

func TestFetchParts_ErrorKeepsState(t *testing.T) {
	ok := true
	api := &fakeAPI{parts: func(PartFilter) (json.RawMessage, error) {
		if ok {
			return json.RawMessage(`{"items":[{"id":1,"name":"a","quantity":1}],"total":9}`), nil
		}
		return nil, apperror.NewNetwork(errors.New("dial tcp: refused"))
	}}
	s := newTestStore(api)

	_, err := s.FetchParts(context.Background(), PartFilter{})
	require.NoError(t, err)

	ok = false
	_, err = s.FetchParts(context.Background(), PartFilter{})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNetwork))

	assert.Equal(t, []string{"1"}, partIDs(s.Parts()))
	assert.Equal(t, 9, s.Total())
	assert.False(t, s.Loading())
}

func TestFetchParts_MalformedItems(t *testing.T) {
	s := newTestStore(&fakeAPI{parts: partsPayload(`{"items":[{"id":{}}]}`)})

	_, err := s.FetchParts(context.Background(), PartFilter{})
	assert.True(t, apperror.HasCode(err, apperror.CodeDecode))
	assert.Empty(t, s.Parts())
}

func TestFetchSites_RetainsOnUnrecognizedPayload(t *testing.T) {
	payload := `[{"id":1,"name":"Wind Farm 1","code":"WF1"}]`
	api := &fakeAPI{sites: func() (json.RawMessage, error) { return json.RawMessage(payload), nil }}
	s := newTestStore(api)

	sites, err := s.FetchSites(context.Background())
	require.NoError(t, err)
	require.Len(t, sites, 1)

	payload = `{"items":[{"id":2,"name":"Wind Farm 2","code":"WF2"}]}`
	sites, err = s.FetchSites(context.Background())
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "WF1", s.Sites()[0].Code)

	payload = `{"results":[{"id":3,"name":"Wind Farm 3","code":"WF3"}],"count":1}`
	_, err = s.FetchSites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "WF3", s.Sites()[0].Code)
}

func TestFetchCategories_EmptiesOnUnrecognizedPayload(t *testing.T) {
	payload := `[{"id":1,"name":"Bearings","code":"BRG","is_active":true}]`
	api := &fakeAPI{categories: func() (json.RawMessage, error) { return json.RawMessage(payload), nil }}
	s := newTestStore(api)

	_, err := s.FetchCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Categories(), 1)

	payload = `{"items":[{"id":2,"name":"Seals","code":"SEL"}]}`
	cats, err := s.FetchCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cats)
	assert.Empty(t, s.Categories())
}

func TestCreateCategory_DoesNotTouchList(t *testing.T) {
	api := &fakeAPI{categories: raw(`[{"id":1,"name":"Bearings","code":"BRG"}]`)}
	s := newTestStore(api)
	_, err := s.FetchCategories(context.Background())
	require.NoError(t, err)

	c, err := s.CreateCategory(context.Background(), CategoryInput{Name: "Seals", Code: "SEL"})
	require.NoError(t, err)
	assert.Equal(t, id.ID("9"), c.ID)
	assert.Equal(t, "SEL", api.lastCategory.Code)
	assert.Len(t, s.Categories(), 1)
}

func TestGetPart_SetsCurrentPart(t *testing.T) {
	api := &fakeAPI{part: func(partID id.ID) (json.RawMessage, error) {
		return json.RawMessage(`{"id":` + partID.String() + `,"name":"Bearing","quantity":4,"alarmQty":2,"categoryId":3}`), nil
	}}
	s := newTestStore(api)

	p, err := s.GetPart(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, id.ID("5"), p.ID)
	require.NotNil(t, s.CurrentPart())
	assert.Equal(t, 4, s.CurrentPart().Quantity)
	assert.Equal(t, 2, *s.CurrentPart().AlarmQty)
	assert.Equal(t, id.ID("3"), s.CurrentPart().CategoryID)
}

func TestCreateAndUpdatePart_DoNotTouchState(t *testing.T) {
	api := &fakeAPI{
		parts: partsPayload(`[{"id":1,"name":"a","quantity":1}]`),
		create: func(PartPayload) (json.RawMessage, error) {
			return json.RawMessage(`{"id":2,"name":"b","quantity":0}`), nil
		},
	}
	s := newTestStore(api)
	_, err := s.FetchParts(context.Background(), PartFilter{})
	require.NoError(t, err)

	name := "b"
	created, err := s.CreatePart(context.Background(), PartInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, id.ID("2"), created.ID)

	_, err = s.UpdatePart(context.Background(), "1", PartInput{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, partIDs(s.Parts()))
	assert.Nil(t, s.CurrentPart())
}

func TestDeletePart(t *testing.T) {
	api := &fakeAPI{parts: partsPayload(`{"items":[{"id":1,"name":"a","quantity":1},{"id":2,"name":"b","quantity":1}],"total":10}`)}
	s := newTestStore(api)
	_, err := s.FetchParts(context.Background(), PartFilter{})
	require.NoError(t, err)

	require.NoError(t, s.DeletePart(context.Background(), "1"))
	assert.Equal(t, []string{"2"}, partIDs(s.Parts()))
	assert.Equal(t, 10, s.Total())

	require.NoError(t, s.DeletePart(context.Background(), "42"))
	assert.Equal(t, []string{"2"}, partIDs(s.Parts()))

	api.deleteErr = apperror.NewForbidden("not your site")
	err = s.DeletePart(context.Background(), "2")
	require.Error(t, err)
	assert.Equal(t, []string{"2"}, partIDs(s.Parts()))
}

func TestFetchTransactions_RetainsOnUnrecognizedPayload(t *testing.T) {
	payload := `{"spare_part":{"id":5,"name":"Bearing","current_quantity":3},"items":[{"id":1,"spare_part":5,"transaction_type":"IN","quantity":3,"created_at":"2024-01-01T00:00:00Z"}]}`
	api := &fakeAPI{history: func(id.ID) (json.RawMessage, error) { return json.RawMessage(payload), nil }}
	s := newTestStore(api)

	txs, err := s.FetchTransactions(context.Background(), "5")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, id.ID("5"), txs[0].SparePart.ID)

	payload = `{"unexpected":true}`
	_, err = s.FetchTransactions(context.Background(), "5")
	require.NoError(t, err)
	assert.Len(t, s.Transactions(), 1)

	payload = `[]`
	_, err = s.FetchTransactions(context.Background(), "5")
	require.NoError(t, err)
	assert.Empty(t, s.Transactions())
}

func TestListTransactions_NotStored(t *testing.T) {
	var got TransactionFilter
	api := &fakeAPI{ledger: func(f TransactionFilter) (json.RawMessage, error) {
		got = f
		return json.RawMessage(`{"items":[{"id":1,"spare_part":{"id":5,"name":"Bearing","quantity":2},"transaction_type":"OUT","quantity":1,"price":"12.50","operator":"wang","created_at":"2024-01-02T00:00:00Z"}],"total":40,"page":1,"limit":20}`), nil
	}}
	s := newTestStore(api)

	filter := TransactionFilter{TransactionType: TransactionOut, StartDate: "2024-01-01", Limit: 20}
	page, err := s.ListTransactions(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, filter, got)
	assert.Equal(t, 40, page.Total)
	assert.Equal(t, listshape.ShapeItems, page.Shape)
	require.Len(t, page.Items, 1)

	tx := page.Items[0]
	require.NotNil(t, tx.SparePart.Part)
	assert.Equal(t, "Bearing", tx.SparePart.Part.Name)
	assert.Equal(t, "wang", tx.Operator.Value)
	value, ok := tx.Value()
	require.True(t, ok)
	assert.True(t, value.Equal(types.MustMoney("12.50")))

	assert.Empty(t, s.Transactions())
}

func TestCreateTransaction_RefreshesPartThenHistory(t *testing.T) {
	quantity := "10"
	api := &fakeAPI{
		part: func(partID id.ID) (json.RawMessage, error) {
			return json.RawMessage(`{"id":` + partID.String() + `,"name":"Bearing","quantity":` + quantity + `}`), nil
		},
		history: func(id.ID) (json.RawMessage, error) {
			return json.RawMessage(`{"items":[{"id":11,"spare_part":5,"transaction_type":"OUT","quantity":4,"created_at":"2024-01-03T00:00:00Z"}]}`), nil
		},
		createTx: func(in TransactionInput) (json.RawMessage, error) {
			quantity = "6"
			return json.RawMessage(`{"id":11,"spare_part":5,"transaction_type":"OUT","quantity":4,"created_at":"2024-01-03T00:00:00Z"}`), nil
		},
	}
	s := newTestStore(api)

	tx, err := s.CreateTransaction(context.Background(), TransactionInput{
		SparePart:       "5",
		TransactionType: TransactionOut,
		Quantity:        4,
	})
	require.NoError(t, err)
	assert.Equal(t, id.ID("11"), tx.ID)

	assert.Equal(t, []string{"create_transaction", "part:5", "history:5"}, api.Calls())
	assert.Equal(t, 6, s.CurrentPart().Quantity)
	assert.Len(t, s.Transactions(), 1)
}

func TestCreateTransaction_WithoutPartSkipsRefresh(t *testing.T) {
	var sent TransactionInput
	api := &fakeAPI{createTx: func(in TransactionInput) (json.RawMessage, error) {
		sent = in
		return json.RawMessage(`{"id":12,"spare_part":8,"transaction_type":"IN","quantity":2,"created_at":"2024-01-03T00:00:00Z"}`), nil
	}}
	s := newTestStore(api)

	in := TransactionInput{
		TransactionType:    TransactionIn,
		Quantity:           2,
		SparePartNameInput: "Gearbox seal",
		SparePartSiteID:    "1",
	}
	_, err := s.CreateTransaction(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"create_transaction"}, api.Calls())
	assert.Equal(t, "Gearbox seal", sent.SparePartNameInput)

	body, err := json.Marshal(sent)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"spare_part":`)
}

func TestCreateTransaction_Rejected(t *testing.T) {
	api := &fakeAPI{createTx: func(TransactionInput) (json.RawMessage, error) {
		return nil, apperror.NewApplication("out of stock", 200)
	}}
	s := newTestStore(api)

	_, err := s.CreateTransaction(context.Background(), TransactionInput{SparePart: "5", TransactionType: TransactionOut, Quantity: 100})
	require.Error(t, err)
	assert.Equal(t, "out of stock", err.Error())
	assert.Equal(t, []string{"create_transaction"}, api.Calls())
}

func TestCreateTransaction_RefreshFailure(t *testing.T) {
	api := &fakeAPI{
		createTx: func(TransactionInput) (json.RawMessage, error) {
			return json.RawMessage(`{"id":11,"spare_part":5,"transaction_type":"IN","quantity":1,"created_at":""}`), nil
		},
		part: func(id.ID) (json.RawMessage, error) {
			return nil, apperror.NewHTTPStatus(404)
		},
	}
	s := newTestStore(api)

	_, err := s.CreateTransaction(context.Background(), TransactionInput{SparePart: "5", TransactionType: TransactionIn, Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, 404, apperror.GetHTTPStatus(err))
	assert.Equal(t, []string{"create_transaction", "part:5"}, api.Calls())
}

func TestStatistics(t *testing.T) {
	var got id.ID = "unset"
	api := &fakeAPI{statistics: func(partID id.ID) (json.RawMessage, error) {
		got = partID
		return json.RawMessage(`{"total_transactions":3,"in":{"count":2,"quantity":15},"out":{"count":1,"quantity":4}}`), nil
	}}
	s := newTestStore(api)

	st, err := s.Statistics(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, got.IsNil())
	assert.Equal(t, 3, st.TotalTransactions)
	assert.Equal(t, MovementStats{Count: 2, Quantity: 15}, st.In)
	assert.Equal(t, MovementStats{Count: 1, Quantity: 4}, st.Out)
}

func TestFetchParts_LastResponseWins(t *testing.T) {
	releaseFirst := make(chan struct{})
	firstStarted := make(chan struct{})

	var n int
	var mu sync.Mutex
	api := &fakeAPI{parts: func(f PartFilter) (json.RawMessage, error) {
		mu.Lock()
		n++
		call := n
		mu.Unlock()
		if call == 1 {
			close(firstStarted)
			<-releaseFirst
			return json.RawMessage(`{"items":[{"id":1,"name":"page1","quantity":1}],"total":1}`), nil
		}
		return json.RawMessage(`{"items":[{"id":2,"name":"page2","quantity":1}],"total":2}`), nil
	}}
	s := newTestStore(api)

	done := make(chan error, 1)
	go func() {
		_, err := s.FetchParts(context.Background(), PartFilter{Page: 1})
		done <- err
	}()
	<-firstStarted

	_, err := s.FetchParts(context.Background(), PartFilter{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, partIDs(s.Parts()))

	close(releaseFirst)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"1"}, partIDs(s.Parts()))
	assert.Equal(t, 1, s.Total())
}

func TestLoading_TracksEveryScopedFetch(t *testing.T) {
	partsStarted, partStarted := make(chan struct{}), make(chan struct{})
	releaseParts, releasePart := make(chan struct{}), make(chan struct{})

	api := &fakeAPI{
		parts: func(PartFilter) (json.RawMessage, error) {
			close(partsStarted)
			<-releaseParts
			return json.RawMessage(`[]`), nil
		},
		part: func(id.ID) (json.RawMessage, error) {
			close(partStarted)
			<-releasePart
			return json.RawMessage(`{"id":1,"name":"a","quantity":1}`), nil
		},
	}
	s := newTestStore(api)
	assert.False(t, s.Loading())

	partsDone, partDone := make(chan error, 1), make(chan error, 1)
	go func() {
		_, err := s.FetchParts(context.Background(), PartFilter{})
		partsDone <- err
	}()
	go func() {
		_, err := s.GetPart(context.Background(), "1")
		partDone <- err
	}()
	<-partsStarted
	<-partStarted
	assert.True(t, s.Loading())

	close(releaseParts)
	require.NoError(t, <-partsDone)
	assert.True(t, s.Loading())

	close(releasePart)
	require.NoError(t, <-partDone)
	assert.False(t, s.Loading())
}

func TestLoading_ClearedOnFailure(t *testing.T) {
	api := &fakeAPI{part: func(id.ID) (json.RawMessage, error) {
		return nil, apperror.NewHTTPStatus(500)
	}}
	s := newTestStore(api)

	_, err := s.GetPart(context.Background(), "1")
	require.Error(t, err)
	assert.False(t, s.Loading())
}
