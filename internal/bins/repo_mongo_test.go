package bins

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/warebin/warebin/internal/platform/httpx"
)

func TestListQueryEmptyFilter(t *testing.T) {
	query := listQuery(ListFilter{Skip: 0, Limit: 100})
	require.Empty(t, query)
}

func TestListQuerySearchMatchesThreeFields(t *testing.T) {
	query := listQuery(ListFilter{Search: "a1", Limit: 100})

	or, ok := query["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 3)

	fields := make([]string, 0, len(or))
	for _, clause := range or {
		for field, cond := range clause {
			fields = append(fields, field)
			pattern, ok := cond.(bson.M)
			require.True(t, ok)
			require.Equal(t, "a1", pattern["$regex"])
			require.Equal(t, "i", pattern["$options"])
		}
	}
	require.ElementsMatch(t, []string{"bin_number", "location", "barcode"}, fields)
}

func TestListQueryEscapesRegexMetacharacters(t *testing.T) {
	query := listQuery(ListFilter{Search: "a.1*", Limit: 100})

	or := query["$or"].([]bson.M)
	pattern := or[0]["bin_number"].(bson.M)
	require.Equal(t, `a\.1\*`, pattern["$regex"])
}

func TestListQueryStatusExactMatch(t *testing.T) {
	query := listQuery(ListFilter{Status: StatusInactive, Limit: 100})
	require.Equal(t, "inactive", query["status"])
	_, hasOr := query["$or"]
	require.False(t, hasOr)
}

func TestValidateID(t *testing.T) {
	require.NoError(t, validateID("7b7e9a47-5f2b-4a5e-8a56-1e6e2cba5d3f"))
	require.ErrorIs(t, validateID("not-a-valid-id"), httpx.ErrValidation)
	require.ErrorIs(t, validateID(""), httpx.ErrValidation)
}
