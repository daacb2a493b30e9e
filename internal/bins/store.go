package bins

import "context"

// List bounds shared by every adapter.
const (
	MinListLimit = 1
	MaxListLimit = 500
)

// ListFilter bounds and filters a bin listing.
type ListFilter struct {
	Skip   int
	Limit  int
	Search string
	Status Status
}

// Store is the port implemented by each backing adapter. The active
// adapter is selected once at startup and is the sole source of truth.
type Store interface {
	// List returns bins in natural insertion order. Search matches
	// case-insensitively as a substring; status is an exact match.
	List(ctx context.Context, filter ListFilter) ([]Bin, error)
	// Stats aggregates counts, capacity and stock over all bins.
	Stats(ctx context.Context) (Stats, error)
	// Get resolves a bin by identifier.
	Get(ctx context.Context, id string) (Bin, error)
	// GetByBarcode resolves a bin by exact barcode match.
	GetByBarcode(ctx context.Context, barcode string) (Bin, error)
	// Create persists a new bin. The identifier is adapter-assigned;
	// a duplicate bin number yields httpx.ErrDuplicate.
	Create(ctx context.Context, bin Bin) (Bin, error)
	// Replace overwrites the full record under the given identifier.
	Replace(ctx context.Context, id string, bin Bin) (Bin, error)
	// Delete removes a bin permanently.
	Delete(ctx context.Context, id string) error
}
