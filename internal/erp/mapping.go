package erp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/warebin/warebin/internal/bins"
)

// OData property names of the remote bin entity.
const (
	fieldBinNumber         = "BinNumber"
	fieldWarehouse         = "Warehouse"
	fieldStorageType       = "StorageType"
	fieldMaxCapacity       = "MaxCapacity"
	fieldCurrentStock      = "CurrentStock"
	fieldBlockingIndicator = "BlockingIndicator"
	fieldBarcode           = "Barcode"
	fieldLastChanged       = "LastChanged"
)

// blockedIndicator is the only value written back for inactive bins,
// whatever indicator the remote system originally held.
const blockedIndicator = "X"

// entity is one remote record as a loose property bag. JSON responses
// decode numbers as float64, XML responses as strings; the accessors
// absorb both.
type entity map[string]any

func (e entity) str(key string) string {
	switch v := e[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// num reads a numeric property, defaulting to 0 when absent or
// non-numeric.
func (e entity) num(key string) int {
	switch v := e[key].(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// toBin maps a remote entity onto the canonical record. The bin number
// doubles as the identifier in remote mode.
func toBin(e entity) bins.Bin {
	bin := bins.Bin{
		ID:           e.str(fieldBinNumber),
		BinNumber:    e.str(fieldBinNumber),
		Location:     formatLocation(e.str(fieldWarehouse), e.str(fieldStorageType)),
		Capacity:     e.num(fieldMaxCapacity),
		CurrentStock: e.num(fieldCurrentStock),
		Status:       statusFromIndicator(e.str(fieldBlockingIndicator)),
		Barcode:      e.str(fieldBarcode),
	}
	if ts, ok := parseODataTime(e.str(fieldLastChanged)); ok {
		bin.LastUpdated = ts
		bin.CreatedAt = ts
	}
	return bin
}

// fromBin maps the canonical record onto the remote payload. All
// mapped fields are written; the pairing is total.
func fromBin(bin bins.Bin) map[string]any {
	warehouse, storageType := splitLocation(bin.Location)
	return map[string]any{
		fieldBinNumber:         bin.BinNumber,
		fieldWarehouse:         warehouse,
		fieldStorageType:       storageType,
		fieldMaxCapacity:       strconv.Itoa(bin.Capacity),
		fieldCurrentStock:      strconv.Itoa(bin.CurrentStock),
		fieldBlockingIndicator: indicatorFromStatus(bin.Status),
		fieldBarcode:           bin.Barcode,
	}
}

func statusFromIndicator(indicator string) bins.Status {
	if strings.TrimSpace(indicator) == "" {
		return bins.StatusActive
	}
	return bins.StatusInactive
}

func indicatorFromStatus(status bins.Status) string {
	if status == bins.StatusInactive {
		return blockedIndicator
	}
	return ""
}

// formatLocation renders "<warehouse>: <storage type>". The inverse
// split is a lossy convention: location strings that were not produced
// by formatLocation will not round-trip cleanly.
func formatLocation(warehouse, storageType string) string {
	if storageType == "" {
		return warehouse
	}
	return fmt.Sprintf("%s: %s", warehouse, storageType)
}

// splitLocation splits on the first colon, then truncates the storage
// type at the first comma.
func splitLocation(location string) (warehouse, storageType string) {
	warehouse = strings.TrimSpace(location)
	if idx := strings.Index(location, ":"); idx >= 0 {
		warehouse = strings.TrimSpace(location[:idx])
		storageType = strings.TrimSpace(location[idx+1:])
	}
	if idx := strings.Index(storageType, ","); idx >= 0 {
		storageType = strings.TrimSpace(storageType[:idx])
	}
	return warehouse, storageType
}

var msEpochPattern = regexp.MustCompile(`^/Date\((-?\d+)\)/$`)

// parseODataTime accepts the legacy /Date(milliseconds)/ form as well
// as RFC3339.
func parseODataTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if m := msEpochPattern.FindStringSubmatch(raw); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), true
	}
	return time.Time{}, false
}
