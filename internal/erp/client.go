// Package erp translates the bin store contract into OData calls
// against the remote warehouse management system.
package erp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/warebin/warebin/internal/bins"
	"github.com/warebin/warebin/internal/platform/httpx"
)

// statsSampleSize caps how many records the stats aggregation pulls.
// The remote system's own aggregate capability is not used.
const statsSampleSize = 1000

// Config carries the statically configured connection details.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Resource string
	Timeout  time.Duration
}

// Client implements bins.Store against a fixed OData resource. Every
// operation is one HTTP call, except Update which reads then writes.
type Client struct {
	baseURL    string
	resource   string
	auth       string
	httpClient *http.Client
}

// NewClient constructs a new client. The Basic auth header is encoded
// once here.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		resource:   strings.Trim(cfg.Resource, "/"),
		auth:       "Basic " + credentials,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ bins.Store = (*Client)(nil)

// List translates search and status into an OData $filter expression
// and pages with $skip/$top.
func (c *Client) List(ctx context.Context, filter bins.ListFilter) ([]bins.Bin, error) {
	query := url.Values{}
	query.Set("$format", "json")
	query.Set("$skip", strconv.Itoa(filter.Skip))
	query.Set("$top", strconv.Itoa(filter.Limit))
	if expr := filterExpression(filter.Search, filter.Status); expr != "" {
		query.Set("$filter", expr)
	}

	resp, err := c.do(ctx, http.MethodGet, c.collectionURL()+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !success(resp) {
		return nil, c.upstreamError(resp)
	}

	entities, err := decodeCollection(resp)
	if err != nil {
		return nil, err
	}
	result := make([]bins.Bin, 0, len(entities))
	for _, e := range entities {
		result = append(result, toBin(e))
	}
	return result, nil
}

// Stats fetches up to 1000 records and aggregates client-side.
func (c *Client) Stats(ctx context.Context) (bins.Stats, error) {
	records, err := c.List(ctx, bins.ListFilter{Limit: statsSampleSize})
	if err != nil {
		return bins.Stats{}, err
	}
	stats := bins.Stats{TotalBins: len(records)}
	for _, bin := range records {
		if bin.Status == bins.StatusActive {
			stats.ActiveBins++
		} else {
			stats.InactiveBins++
		}
		stats.TotalCapacity += bin.Capacity
		stats.TotalStock += bin.CurrentStock
	}
	stats.UtilizationPercentage = bins.Utilization(stats.TotalCapacity, stats.TotalStock)
	return stats, nil
}

// Get addresses the entity by its natural key, the bin number.
func (c *Client) Get(ctx context.Context, id string) (bins.Bin, error) {
	resp, err := c.do(ctx, http.MethodGet, c.entityURL(id)+"?$format=json", nil)
	if err != nil {
		return bins.Bin{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !success(resp) {
		return bins.Bin{}, c.upstreamError(resp)
	}

	e, err := decodeEntity(resp)
	if err != nil {
		return bins.Bin{}, err
	}
	return toBin(e), nil
}

// GetByBarcode filters the collection on the barcode field and takes
// the first match.
func (c *Client) GetByBarcode(ctx context.Context, barcode string) (bins.Bin, error) {
	query := url.Values{}
	query.Set("$format", "json")
	query.Set("$top", "1")
	query.Set("$filter", fmt.Sprintf("%s eq '%s'", fieldBarcode, odataQuote(barcode)))

	resp, err := c.do(ctx, http.MethodGet, c.collectionURL()+"?"+query.Encode(), nil)
	if err != nil {
		return bins.Bin{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !success(resp) {
		return bins.Bin{}, c.upstreamError(resp)
	}

	entities, err := decodeCollection(resp)
	if err != nil {
		return bins.Bin{}, err
	}
	if len(entities) == 0 {
		return bins.Bin{}, fmt.Errorf("bin not found with this barcode: %w", httpx.ErrNotFound)
	}
	return toBin(entities[0]), nil
}

// Create posts the mapped payload. The remote system owns key
// uniqueness; a 409 from it surfaces as a duplicate.
func (c *Client) Create(ctx context.Context, bin bins.Bin) (bins.Bin, error) {
	resp, err := c.do(ctx, http.MethodPost, c.collectionURL(), fromBin(bin))
	if err != nil {
		return bins.Bin{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusConflict {
		return bins.Bin{}, fmt.Errorf("bin number already exists: %w", httpx.ErrDuplicate)
	}
	if !success(resp) {
		return bins.Bin{}, c.upstreamError(resp)
	}
	bin.ID = bin.BinNumber
	return bin, nil
}

// Replace writes the full mapped payload back under the entity key.
func (c *Client) Replace(ctx context.Context, id string, bin bins.Bin) (bins.Bin, error) {
	resp, err := c.do(ctx, http.MethodPut, c.entityURL(id), fromBin(bin))
	if err != nil {
		return bins.Bin{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !success(resp) {
		return bins.Bin{}, c.upstreamError(resp)
	}
	bin.ID = id
	return bin, nil
}

// Delete removes the entity under its key.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.entityURL(id), nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !success(resp) {
		return c.upstreamError(resp)
	}
	return nil
}

func (c *Client) collectionURL() string {
	return c.baseURL + "/" + c.resource
}

func (c *Client) entityURL(key string) string {
	return fmt.Sprintf("%s('%s')", c.collectionURL(), url.PathEscape(odataQuote(key)))
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload map[string]any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("erp: encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("erp: build request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	return resp, nil
}

// upstreamError turns a non-2xx response into the shared taxonomy:
// 404 is the entity missing, everything else forwards status and body.
func (c *Client) upstreamError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("bin not found: %w", httpx.ErrNotFound)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &httpx.UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("erp request timed out: %w", httpx.ErrTimeout)
	}
	return fmt.Errorf("erp unreachable: %w", httpx.ErrUnavailable)
}

func success(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// filterExpression joins the search and status predicates with a
// logical AND. Substring search covers the key and warehouse fields.
func filterExpression(search string, status bins.Status) string {
	var parts []string
	if search != "" {
		quoted := odataQuote(search)
		parts = append(parts, fmt.Sprintf("(substringof('%s', %s) or substringof('%s', %s))",
			quoted, fieldBinNumber, quoted, fieldWarehouse))
	}
	switch status {
	case bins.StatusActive:
		parts = append(parts, fmt.Sprintf("%s eq ''", fieldBlockingIndicator))
	case bins.StatusInactive:
		parts = append(parts, fmt.Sprintf("%s ne ''", fieldBlockingIndicator))
	}
	return strings.Join(parts, " and ")
}

// odataQuote escapes single quotes in literal values.
func odataQuote(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
