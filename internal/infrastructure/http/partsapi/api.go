// Package partsapi binds the inventory backend's REST endpoints to the
// interfaces consumed by the session and inventory stores.
package partsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"spareparts/internal/core/apperror"
	"spareparts/internal/core/id"
	"spareparts/internal/domain/inventory"
	"spareparts/internal/domain/session"
	"spareparts/internal/infrastructure/http/client"
)

// Endpoint paths, relative to the API base URL.
const (
	PathSites        = "/sites/"
	PathCategories   = "/categories/"
	PathSpareParts   = "/spare-parts/"
	PathTransactions = "/transactions/"
	PathByPart       = "/transactions/by_spare_part"
	PathStatistics   = "/transactions/statistics/"
	PathMe           = "/auth/me/"
	PathLogin        = "/auth/login/"
	PathLogout       = "/auth/logout/"
)

const (
	imageField       = "image"
	sparePartIDParam = "spare_part_id"
)

// Compile-time checks.
var (
	_ inventory.API = (*API)(nil)
	_ session.API   = (*API)(nil)
)

// API issues every backend call through the request pipeline.
type API struct {
	c *client.Client
}

// New creates the bindings over c.
func New(c *client.Client) *API {
	return &API{c: c}
}

// --- Session ---

// Me handles GET /auth/me/.
func (a *API) Me(ctx context.Context) (*session.User, error) {
	raw, err := a.c.Get(ctx, PathMe, nil)
	if err != nil {
		return nil, err
	}
	var u session.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, apperror.NewDecode("user payload", err)
	}
	return &u, nil
}

// Login handles POST /auth/login/.
func (a *API) Login(ctx context.Context, creds session.Credentials) (*session.LoginResult, error) {
	raw, err := a.c.Post(ctx, PathLogin, client.JSON(creds))
	if err != nil {
		return nil, err
	}
	var res session.LoginResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, apperror.NewDecode("login payload", err)
	}
	return &res, nil
}

// Logout handles POST /auth/logout/.
func (a *API) Logout(ctx context.Context) error {
	_, err := a.c.Post(ctx, PathLogout, nil)
	return err
}

// --- Sites & categories ---

func (a *API) Sites(ctx context.Context) (json.RawMessage, error) {
	return a.c.Get(ctx, PathSites, nil)
}

func (a *API) Categories(ctx context.Context) (json.RawMessage, error) {
	return a.c.Get(ctx, PathCategories, nil)
}

func (a *API) CreateCategory(ctx context.Context, in inventory.CategoryInput) (json.RawMessage, error) {
	return a.c.Post(ctx, PathCategories, client.JSON(in))
}

// --- Spare parts ---

func (a *API) SpareParts(ctx context.Context, filter inventory.PartFilter) (json.RawMessage, error) {
	return a.c.Get(ctx, PathSpareParts, filter.Values())
}

func (a *API) SparePart(ctx context.Context, partID id.ID) (json.RawMessage, error) {
	return a.c.Get(ctx, partPath(partID), nil)
}

func (a *API) CreateSparePart(ctx context.Context, payload inventory.PartPayload) (json.RawMessage, error) {
	body, err := partBody(payload)
	if err != nil {
		return nil, err
	}
	return a.c.Post(ctx, PathSpareParts, body)
}

func (a *API) UpdateSparePart(ctx context.Context, partID id.ID, payload inventory.PartPayload) (json.RawMessage, error) {
	body, err := partBody(payload)
	if err != nil {
		return nil, err
	}
	return a.c.Patch(ctx, partPath(partID), body)
}

func (a *API) DeleteSparePart(ctx context.Context, partID id.ID) error {
	_, err := a.c.Delete(ctx, partPath(partID))
	return err
}

// --- Transactions ---

func (a *API) Transactions(ctx context.Context, filter inventory.TransactionFilter) (json.RawMessage, error) {
	return a.c.Get(ctx, PathTransactions, filter.Values())
}

func (a *API) TransactionsByPart(ctx context.Context, partID id.ID) (json.RawMessage, error) {
	return a.c.Get(ctx, PathByPart, url.Values{sparePartIDParam: {partID.String()}})
}

func (a *API) CreateTransaction(ctx context.Context, in inventory.TransactionInput) (json.RawMessage, error) {
	return a.c.Post(ctx, PathTransactions, client.JSON(in))
}

// TransactionStatistics omits spare_part_id when partID is nil, which asks
// for totals over all parts.
func (a *API) TransactionStatistics(ctx context.Context, partID id.ID) (json.RawMessage, error) {
	var query url.Values
	if !partID.IsNil() {
		query = url.Values{sparePartIDParam: {partID.String()}}
	}
	return a.c.Get(ctx, PathStatistics, query)
}

func partPath(partID id.ID) string {
	return PathSpareParts + url.PathEscape(partID.String()) + "/"
}

func partBody(payload inventory.PartPayload) (client.Body, error) {
	switch p := payload.(type) {
	case inventory.PartInput:
		return client.JSON(p), nil
	case *inventory.PartInput:
		return client.JSON(p), nil
	case inventory.PartForm:
		return formBody(p), nil
	case *inventory.PartForm:
		return formBody(*p), nil
	default:
		return nil, apperror.NewValidation(fmt.Sprintf("unsupported part payload %T", payload))
	}
}

func formBody(f inventory.PartForm) client.Body {
	if f.Image == nil {
		return client.Multipart(f.Fields)
	}
	return client.Multipart(f.Fields, client.File{
		Field:    imageField,
		Filename: f.ImageName,
		Content:  f.Image,
	})
}
