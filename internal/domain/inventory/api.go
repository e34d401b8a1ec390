package inventory

import (
	"context"
	"encoding/json"

	"spareparts/internal/core/id"
)

// API is the slice of the backend the inventory store consumes. List calls
// return the unwrapped payload untouched; the store owns shape normalization.
type API interface {
	Sites(ctx context.Context) (json.RawMessage, error)
	Categories(ctx context.Context) (json.RawMessage, error)
	CreateCategory(ctx context.Context, in CategoryInput) (json.RawMessage, error)

	SpareParts(ctx context.Context, filter PartFilter) (json.RawMessage, error)
	SparePart(ctx context.Context, partID id.ID) (json.RawMessage, error)
	CreateSparePart(ctx context.Context, payload PartPayload) (json.RawMessage, error)
	UpdateSparePart(ctx context.Context, partID id.ID, payload PartPayload) (json.RawMessage, error)
	DeleteSparePart(ctx context.Context, partID id.ID) error

	Transactions(ctx context.Context, filter TransactionFilter) (json.RawMessage, error)
	TransactionsByPart(ctx context.Context, partID id.ID) (json.RawMessage, error)
	CreateTransaction(ctx context.Context, in TransactionInput) (json.RawMessage, error)
	TransactionStatistics(ctx context.Context, partID id.ID) (json.RawMessage, error)
}
