package bins

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateLevels(t *testing.T) {
	require.NoError(t, ValidateLevels(100, 50))
	require.NoError(t, ValidateLevels(100, 100))
	require.NoError(t, ValidateLevels(0, 0))
	require.ErrorIs(t, ValidateLevels(100, 101), ErrStockExceedsCapacity)
}

func TestMergeAppliesOnlySuppliedFields(t *testing.T) {
	existing := Bin{
		BinNumber:    "A1",
		Location:     "Zone 1",
		Capacity:     100,
		CurrentStock: 50,
		Status:       StatusActive,
		Barcode:      "123",
	}

	capacity := 200
	merged, changed := existing.Merge(UpdateInput{Capacity: &capacity})
	require.True(t, changed)
	require.Equal(t, 200, merged.Capacity)
	require.Equal(t, 50, merged.CurrentStock)
	require.Equal(t, "Zone 1", merged.Location)
	require.Equal(t, StatusActive, merged.Status)
}

func TestMergeReportsNoChangeForSameValues(t *testing.T) {
	existing := Bin{Location: "Zone 1", Capacity: 100, CurrentStock: 50, Status: StatusActive}

	location := "Zone 1"
	stock := 50
	_, changed := existing.Merge(UpdateInput{Location: &location, CurrentStock: &stock})
	require.False(t, changed)
}

func TestUtilization(t *testing.T) {
	require.Equal(t, 0.0, Utilization(0, 0))
	require.Equal(t, 0.0, Utilization(0, 10))
	require.Equal(t, 50.0, Utilization(100, 50))
	require.Equal(t, 33.33, Utilization(300, 100))
	require.Equal(t, 100.0, Utilization(40, 40))
}

func TestStatusValid(t *testing.T) {
	require.True(t, StatusActive.Valid())
	require.True(t, StatusInactive.Valid())
	require.False(t, Status("blocked").Valid())
	require.False(t, Status("").Valid())
}
