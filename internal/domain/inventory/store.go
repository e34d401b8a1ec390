package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"spareparts/internal/core/apperror"
	"spareparts/internal/core/id"
	"spareparts/internal/domain/listshape"
	"spareparts/pkg/logger"
)

// Store mirrors the inventory the user is looking at.
//
// Lists are caches of the last successful fetch: every fetch replaces them
// wholesale, nothing is merged. Concurrent fetches of the same list are not
// de-duplicated; the response that completes last wins. The loading flag is
// an in-flight counter, so it stays raised until every scoped fetch returns.
type Store struct {
	api API
	log *logger.Logger

	mu           sync.RWMutex
	parts        []SparePart
	total        int
	categories   []Category
	sites        []Site
	currentPart  *SparePart
	transactions []Transaction
	inFlight     int
}

// NewStore creates an empty Store.
func NewStore(api API, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{
		api:          api,
		log:          log.WithComponent("inventory_store"),
		parts:        []SparePart{},
		categories:   []Category{},
		sites:        []Site{},
		transactions: []Transaction{},
	}
}

// Shape arms per endpoint. Categories and sites have never been served in
// the items shape, so they do not match it.
func partArms() []listshape.Arm[SparePart] {
	return []listshape.Arm[SparePart]{
		listshape.Items[SparePart](),
		listshape.Results[SparePart](),
		listshape.Sequence[SparePart](),
		listshape.Empty[SparePart](),
	}
}

func categoryArms() []listshape.Arm[Category] {
	return []listshape.Arm[Category]{
		listshape.Sequence[Category](),
		listshape.Results[Category](),
		listshape.Empty[Category](),
	}
}

func siteArms() []listshape.Arm[Site] {
	return []listshape.Arm[Site]{
		listshape.Sequence[Site](),
		listshape.Results[Site](),
		listshape.Retain[Site](),
	}
}

func historyArms() []listshape.Arm[Transaction] {
	return []listshape.Arm[Transaction]{
		listshape.Items[Transaction](),
		listshape.Results[Transaction](),
		listshape.Sequence[Transaction](),
		listshape.Retain[Transaction](),
	}
}

func ledgerArms() []listshape.Arm[Transaction] {
	return []listshape.Arm[Transaction]{
		listshape.Items[Transaction](),
		listshape.Results[Transaction](),
		listshape.Sequence[Transaction](),
		listshape.Empty[Transaction](),
	}
}

// --- Sites & categories ---

// FetchSites loads every site. An unrecognized payload keeps the previous
// list.
func (s *Store) FetchSites(ctx context.Context) ([]Site, error) {
	raw, err := s.api.Sites(ctx)
	if err != nil {
		return nil, err
	}
	page, err := listshape.Decode(raw, siteArms()...)
	if err != nil {
		return nil, apperror.NewDecode("sites payload", err)
	}
	s.logShape(ctx, "sites", page.Shape, len(page.Items))

	s.mu.Lock()
	defer s.mu.Unlock()
	if !page.Retain {
		s.sites = page.Items
	}
	return slices.Clone(s.sites), nil
}

// FetchCategories loads every category. An unrecognized payload empties the
// list.
func (s *Store) FetchCategories(ctx context.Context) ([]Category, error) {
	raw, err := s.api.Categories(ctx)
	if err != nil {
		return nil, err
	}
	page, err := listshape.Decode(raw, categoryArms()...)
	if err != nil {
		return nil, apperror.NewDecode("categories payload", err)
	}
	s.logShape(ctx, "categories", page.Shape, len(page.Items))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = page.Items
	return slices.Clone(s.categories), nil
}

// CreateCategory creates a category. The local list is not updated.
func (s *Store) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	raw, err := s.api.CreateCategory(ctx, in)
	if err != nil {
		return nil, err
	}
	var c Category
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, apperror.NewDecode("category payload", err)
	}
	return &c, nil
}

// --- Spare parts ---

// FetchParts loads the parts page selected by filter and replaces the local
// list and total with it.
func (s *Store) FetchParts(ctx context.Context, filter PartFilter) ([]SparePart, error) {
	defer s.beginLoading()()

	raw, err := s.api.SpareParts(ctx, filter)
	if err != nil {
		return nil, err
	}
	page, err := listshape.Decode(raw, partArms()...)
	if err != nil {
		return nil, apperror.NewDecode("spare parts payload", err)
	}
	s.logShape(ctx, "spare_parts", page.Shape, len(page.Items), "total", page.Total)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts = page.Items
	s.total = page.Total
	return slices.Clone(s.parts), nil
}

// GetPart loads one part and makes it the current part.
func (s *Store) GetPart(ctx context.Context, partID id.ID) (*SparePart, error) {
	defer s.beginLoading()()

	raw, err := s.api.SparePart(ctx, partID)
	if err != nil {
		return nil, err
	}
	var p SparePart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apperror.NewDecode("spare part payload", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPart = &p
	cp := p
	return &cp, nil
}

// CreatePart creates a part. Callers refetch the list to see it.
func (s *Store) CreatePart(ctx context.Context, payload PartPayload) (*SparePart, error) {
	raw, err := s.api.CreateSparePart(ctx, payload)
	if err != nil {
		return nil, err
	}
	return decodePart(raw)
}

// UpdatePart patches a part. Neither the list nor the current part change.
func (s *Store) UpdatePart(ctx context.Context, partID id.ID, payload PartPayload) (*SparePart, error) {
	raw, err := s.api.UpdateSparePart(ctx, partID, payload)
	if err != nil {
		return nil, err
	}
	return decodePart(raw)
}

// DeletePart deletes a part and drops it from the local list. The total is
// left as fetched.
func (s *Store) DeletePart(ctx context.Context, partID id.ID) error {
	if err := s.api.DeleteSparePart(ctx, partID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts = slices.DeleteFunc(s.parts, func(p SparePart) bool { return p.ID == partID })
	return nil
}

// --- Transactions ---

// FetchTransactions loads the history of one part. An unrecognized payload
// keeps the previous history.
func (s *Store) FetchTransactions(ctx context.Context, partID id.ID) ([]Transaction, error) {
	raw, err := s.api.TransactionsByPart(ctx, partID)
	if err != nil {
		return nil, err
	}
	page, err := listshape.Decode(raw, historyArms()...)
	if err != nil {
		return nil, apperror.NewDecode("transactions payload", err)
	}
	s.logShape(ctx, "transactions", page.Shape, len(page.Items), "spare_part", partID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !page.Retain {
		s.transactions = page.Items
	}
	return slices.Clone(s.transactions), nil
}

// ListTransactions queries the transaction ledger. The result is returned,
// not stored.
func (s *Store) ListTransactions(ctx context.Context, filter TransactionFilter) (listshape.Page[Transaction], error) {
	raw, err := s.api.Transactions(ctx, filter)
	if err != nil {
		return listshape.Page[Transaction]{}, err
	}
	page, err := listshape.Decode(raw, ledgerArms()...)
	if err != nil {
		return listshape.Page[Transaction]{}, apperror.NewDecode("transactions payload", err)
	}
	return page, nil
}

// CreateTransaction records a stock movement. When it names a part, the part
// and then its history are refetched so the quantity change is visible.
func (s *Store) CreateTransaction(ctx context.Context, in TransactionInput) (*Transaction, error) {
	raw, err := s.api.CreateTransaction(ctx, in)
	if err != nil {
		return nil, err
	}
	var created Transaction
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, apperror.NewDecode("transaction payload", err)
	}

	if !in.SparePart.IsNil() {
		if _, err := s.GetPart(ctx, in.SparePart); err != nil {
			return nil, fmt.Errorf("refresh part %s: %w", in.SparePart, err)
		}
		if _, err := s.FetchTransactions(ctx, in.SparePart); err != nil {
			return nil, fmt.Errorf("refresh history of part %s: %w", in.SparePart, err)
		}
	}
	return &created, nil
}

// Statistics returns movement totals for one part, or for all parts when
// partID is nil.
func (s *Store) Statistics(ctx context.Context, partID id.ID) (*Statistics, error) {
	raw, err := s.api.TransactionStatistics(ctx, partID)
	if err != nil {
		return nil, err
	}
	var st Statistics
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, apperror.NewDecode("statistics payload", err)
	}
	return &st, nil
}

// --- State accessors ---

// Parts returns the cached parts page.
func (s *Store) Parts() []SparePart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.parts)
}

// Total returns the total reported by the last parts fetch.
func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Categories returns the cached categories.
func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

// Sites returns the cached sites.
func (s *Store) Sites() []Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sites)
}

// CurrentPart returns the part last loaded by GetPart, or nil.
func (s *Store) CurrentPart() *SparePart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentPart == nil {
		return nil
	}
	cp := *s.currentPart
	return &cp
}

// Transactions returns the cached history of the current part.
func (s *Store) Transactions() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

// Loading reports whether a scoped fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// beginLoading raises the loading flag and returns its release.
func (s *Store) beginLoading() func() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}
}

func (s *Store) logShape(ctx context.Context, list string, shape listshape.Shape, n int, kv ...any) {
	args := append([]any{"list", list, "shape", shape.String(), "items", n}, kv...)
	s.log.WithContext(ctx).Debugw("list normalized", args...)
}

func decodePart(raw json.RawMessage) (*SparePart, error) {
	var p SparePart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apperror.NewDecode("spare part payload", err)
	}
	return &p, nil
}
