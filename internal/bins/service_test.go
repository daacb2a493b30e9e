package bins

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/warebin/warebin/internal/platform/httpx"
)

type memoryStore struct {
	records []Bin
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (m *memoryStore) List(ctx context.Context, filter ListFilter) ([]Bin, error) {
	matched := make([]Bin, 0, len(m.records))
	for _, b := range m.records {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !matchesSearch(b, filter.Search) {
			continue
		}
		matched = append(matched, b)
	}
	if filter.Skip >= len(matched) {
		return []Bin{}, nil
	}
	matched = matched[filter.Skip:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func matchesSearch(b Bin, search string) bool {
	needle := strings.ToLower(search)
	for _, hay := range []string{b.BinNumber, b.Location, b.Barcode} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

func (m *memoryStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{TotalBins: len(m.records)}
	for _, b := range m.records {
		if b.Status == StatusActive {
			stats.ActiveBins++
		} else {
			stats.InactiveBins++
		}
		stats.TotalCapacity += b.Capacity
		stats.TotalStock += b.CurrentStock
	}
	stats.UtilizationPercentage = Utilization(stats.TotalCapacity, stats.TotalStock)
	return stats, nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (Bin, error) {
	if err := validateID(id); err != nil {
		return Bin{}, err
	}
	for _, b := range m.records {
		if b.ID == id {
			return b, nil
		}
	}
	return Bin{}, fmt.Errorf("bin not found: %w", httpx.ErrNotFound)
}

func (m *memoryStore) GetByBarcode(ctx context.Context, barcode string) (Bin, error) {
	for _, b := range m.records {
		if b.Barcode == barcode {
			return b, nil
		}
	}
	return Bin{}, fmt.Errorf("bin not found with this barcode: %w", httpx.ErrNotFound)
}

func (m *memoryStore) Create(ctx context.Context, bin Bin) (Bin, error) {
	for _, b := range m.records {
		if b.BinNumber == bin.BinNumber {
			return Bin{}, fmt.Errorf("bin number already exists: %w", httpx.ErrDuplicate)
		}
	}
	bin.ID = uuid.NewString()
	m.records = append(m.records, bin)
	return bin, nil
}

func (m *memoryStore) Replace(ctx context.Context, id string, bin Bin) (Bin, error) {
	if err := validateID(id); err != nil {
		return Bin{}, err
	}
	for i, b := range m.records {
		if b.ID == id {
			bin.ID = id
			m.records[i] = bin
			return bin, nil
		}
	}
	return Bin{}, fmt.Errorf("bin not found: %w", httpx.ErrNotFound)
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	for i, b := range m.records {
		if b.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("bin not found: %w", httpx.ErrNotFound)
}

func newTestService(now time.Time) (*Service, *memoryStore) {
	store := newMemoryStore()
	svc := NewService(store)
	svc.WithNow(func() time.Time { return now })
	return svc, store
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		BinNumber:    "A1",
		Location:     "Zone 1",
		Capacity:     100,
		CurrentStock: 50,
		Barcode:      "4006381333931",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	_, err = uuid.Parse(created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, created.Status)
	require.Equal(t, now, created.CreatedAt)
	require.Equal(t, now, created.LastUpdated)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, fetched)
}

func TestCreateRejectsStockAboveCapacity(t *testing.T) {
	svc, _ := newTestService(time.Now())

	_, err := svc.Create(context.Background(), CreateInput{
		BinNumber:    "A1",
		Location:     "Zone 1",
		Capacity:     10,
		CurrentStock: 11,
	})
	require.ErrorIs(t, err, ErrStockExceedsCapacity)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRejectsDuplicateBinNumber(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{BinNumber: "A1", Location: "Zone 1", Capacity: 10})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{BinNumber: "A1", Location: "Zone 2", Capacity: 20})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateValidatesMergedState(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		BinNumber:    "A1",
		Location:     "Zone 1",
		Capacity:     100,
		CurrentStock: 50,
	})
	require.NoError(t, err)

	// Raising stock past the stored capacity must fail even though
	// capacity itself is not part of the update.
	stock := 150
	_, err = svc.Update(ctx, created.ID, UpdateInput{CurrentStock: &stock})
	require.ErrorIs(t, err, ErrStockExceedsCapacity)

	capacity := 200
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Capacity: &capacity})
	require.NoError(t, err)
	require.Equal(t, 200, updated.Capacity)
	require.Equal(t, 50, updated.CurrentStock)

	stock = 150
	updated, err = svc.Update(ctx, created.ID, UpdateInput{CurrentStock: &stock})
	require.NoError(t, err)
	require.Equal(t, 150, updated.CurrentStock)
}

func TestUpdateBumpsLastUpdatedOnlyOnChange(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(start)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{BinNumber: "A1", Location: "Zone 1", Capacity: 100})
	require.NoError(t, err)

	later := start.Add(time.Hour)
	svc.WithNow(func() time.Time { return later })

	sameLocation := "Zone 1"
	unchanged, err := svc.Update(ctx, created.ID, UpdateInput{Location: &sameLocation})
	require.NoError(t, err)
	require.Equal(t, start, unchanged.LastUpdated)

	newLocation := "Zone 2"
	changed, err := svc.Update(ctx, created.ID, UpdateInput{Location: &newLocation})
	require.NoError(t, err)
	require.Equal(t, later, changed.LastUpdated)
	require.Equal(t, start, changed.CreatedAt)
}

func TestDeleteThenGetNotFound(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{BinNumber: "A1", Location: "Zone 1", Capacity: 10})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)

	err = svc.Delete(ctx, created.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListBoundsAndPagination(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, CreateInput{
			BinNumber: fmt.Sprintf("A%d", i),
			Location:  "Zone 1",
			Capacity:  10,
		})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListFilter{Skip: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "A2", page[0].BinNumber)

	_, err = svc.List(ctx, ListFilter{Limit: 0})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.List(ctx, ListFilter{Limit: 501})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.List(ctx, ListFilter{Skip: -1, Limit: 10})
	require.ErrorIs(t, err, httpx.ErrValidation)

	empty, err := svc.List(ctx, ListFilter{Skip: 10, Limit: 10})
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestListSearchAndStatusFilter(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	inactive := StatusInactive
	_, err := svc.Create(ctx, CreateInput{BinNumber: "A1", Location: "North Zone", Capacity: 10})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{BinNumber: "B2", Location: "South Zone", Capacity: 10, Status: inactive, Barcode: "XYZ-9"})
	require.NoError(t, err)

	found, err := svc.List(ctx, ListFilter{Limit: 100, Search: "north"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "A1", found[0].BinNumber)

	found, err = svc.List(ctx, ListFilter{Limit: 100, Search: "xyz"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "B2", found[0].BinNumber)

	found, err = svc.List(ctx, ListFilter{Limit: 100, Status: StatusInactive})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "B2", found[0].BinNumber)
}

func TestStatsIdentities(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.TotalBins)
	require.Zero(t, stats.UtilizationPercentage)

	inactive := StatusInactive
	_, err = svc.Create(ctx, CreateInput{BinNumber: "A1", Location: "Zone 1", Capacity: 100, CurrentStock: 25})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{BinNumber: "B2", Location: "Zone 2", Capacity: 100, CurrentStock: 50, Status: inactive})
	require.NoError(t, err)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, stats.TotalBins, stats.ActiveBins+stats.InactiveBins)
	require.Equal(t, 200, stats.TotalCapacity)
	require.Equal(t, 75, stats.TotalStock)
	require.Equal(t, 37.5, stats.UtilizationPercentage)
}
