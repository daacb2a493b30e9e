// Package bins implements the warehouse bin lookup domain: the bin
// record model, its validation rules, and the store port shared by the
// local and remote adapters.
package bins

import (
	"fmt"
	"math"
	"time"

	"github.com/warebin/warebin/internal/platform/httpx"
)

// Status enumerates bin lifecycle states.
type Status string

const (
	// StatusActive marks a bin available for use.
	StatusActive Status = "active"
	// StatusInactive marks a blocked or retired bin.
	StatusInactive Status = "inactive"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Bin is a physical storage location with a capacity and current stock.
type Bin struct {
	ID           string    `json:"id"`
	BinNumber    string    `json:"bin_number"`
	Location     string    `json:"location"`
	Capacity     int       `json:"capacity"`
	CurrentStock int       `json:"current_stock"`
	Status       Status    `json:"status"`
	Barcode      string    `json:"barcode"`
	LastUpdated  time.Time `json:"last_updated"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateInput carries the client-supplied fields for a new bin.
// Identifier and timestamps are always server-assigned.
type CreateInput struct {
	BinNumber    string `json:"bin_number" validate:"required"`
	Location     string `json:"location" validate:"required"`
	Capacity     int    `json:"capacity" validate:"gte=0"`
	CurrentStock int    `json:"current_stock" validate:"gte=0"`
	Status       Status `json:"status" validate:"omitempty,oneof=active inactive"`
	Barcode      string `json:"barcode"`
}

// UpdateInput carries a partial update; nil fields stay untouched.
type UpdateInput struct {
	Location     *string `json:"location"`
	Capacity     *int    `json:"capacity" validate:"omitempty,gte=0"`
	CurrentStock *int    `json:"current_stock" validate:"omitempty,gte=0"`
	Status       *Status `json:"status" validate:"omitempty,oneof=active inactive"`
	Barcode      *string `json:"barcode"`
}

// Stats summarises the whole bin population.
type Stats struct {
	TotalBins             int     `json:"total_bins"`
	ActiveBins            int     `json:"active_bins"`
	InactiveBins          int     `json:"inactive_bins"`
	TotalCapacity         int     `json:"total_capacity"`
	TotalStock            int     `json:"total_stock"`
	UtilizationPercentage float64 `json:"utilization_percentage"`
}

// ErrStockExceedsCapacity rejects any create or merged update whose
// effective stock exceeds the effective capacity.
var ErrStockExceedsCapacity = fmt.Errorf("current stock cannot exceed capacity: %w", httpx.ErrValidation)

// ValidateLevels enforces the stock/capacity invariant. It runs before
// any write regardless of the backing adapter.
func ValidateLevels(capacity, currentStock int) error {
	if currentStock > capacity {
		return ErrStockExceedsCapacity
	}
	return nil
}

// Merge applies the supplied fields of a partial update onto the
// existing record and reports whether anything actually changed.
func (b Bin) Merge(input UpdateInput) (Bin, bool) {
	changed := false
	if input.Location != nil && *input.Location != b.Location {
		b.Location = *input.Location
		changed = true
	}
	if input.Capacity != nil && *input.Capacity != b.Capacity {
		b.Capacity = *input.Capacity
		changed = true
	}
	if input.CurrentStock != nil && *input.CurrentStock != b.CurrentStock {
		b.CurrentStock = *input.CurrentStock
		changed = true
	}
	if input.Status != nil && *input.Status != b.Status {
		b.Status = *input.Status
		changed = true
	}
	if input.Barcode != nil && *input.Barcode != b.Barcode {
		b.Barcode = *input.Barcode
		changed = true
	}
	return b, changed
}

// Utilization returns stock as a percentage of capacity, rounded to two
// decimal places. Zero or negative capacity yields zero.
func Utilization(totalCapacity, totalStock int) float64 {
	if totalCapacity <= 0 {
		return 0
	}
	return math.Round(float64(totalStock)/float64(totalCapacity)*10000) / 100
}
