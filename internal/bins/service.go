package bins

import (
	"context"
	"fmt"
	"time"

	"github.com/warebin/warebin/internal/platform/httpx"
)

// Service coordinates bin operations. It enforces the shared validation
// rules before delegating any write to the active store adapter.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService builds Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// List returns a page of bins. Limit must stay within [1, 500].
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Bin, error) {
	if filter.Skip < 0 {
		return nil, fmt.Errorf("skip must not be negative: %w", httpx.ErrValidation)
	}
	if filter.Limit < MinListLimit || filter.Limit > MaxListLimit {
		return nil, fmt.Errorf("limit must be between %d and %d: %w", MinListLimit, MaxListLimit, httpx.ErrValidation)
	}
	return s.store.List(ctx, filter)
}

// Stats aggregates counts, capacity and stock over all bins.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

// Get resolves a bin by identifier.
func (s *Service) Get(ctx context.Context, id string) (Bin, error) {
	return s.store.Get(ctx, id)
}

// GetByBarcode resolves a bin by exact barcode match.
func (s *Service) GetByBarcode(ctx context.Context, barcode string) (Bin, error) {
	return s.store.GetByBarcode(ctx, barcode)
}

// Create validates the candidate record and persists it. The adapter
// assigns the identifier; timestamps are assigned here.
func (s *Service) Create(ctx context.Context, input CreateInput) (Bin, error) {
	status := input.Status
	if status == "" {
		status = StatusActive
	}
	if !status.Valid() {
		return Bin{}, fmt.Errorf("status must be active or inactive: %w", httpx.ErrValidation)
	}
	if err := ValidateLevels(input.Capacity, input.CurrentStock); err != nil {
		return Bin{}, err
	}
	now := s.now().UTC()
	bin := Bin{
		BinNumber:    input.BinNumber,
		Location:     input.Location,
		Capacity:     input.Capacity,
		CurrentStock: input.CurrentStock,
		Status:       status,
		Barcode:      input.Barcode,
		LastUpdated:  now,
		CreatedAt:    now,
	}
	return s.store.Create(ctx, bin)
}

// Update merges the supplied fields onto the stored record, re-validates
// the stock invariant against the merged result, and writes it back.
// last_updated bumps only when at least one field changed; an effective
// no-op skips the write entirely.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (Bin, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Bin{}, err
	}
	merged, changed := existing.Merge(input)
	if err := ValidateLevels(merged.Capacity, merged.CurrentStock); err != nil {
		return Bin{}, err
	}
	if !changed {
		return existing, nil
	}
	merged.LastUpdated = s.now().UTC()
	return s.store.Replace(ctx, id, merged)
}

// Delete removes a bin permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
