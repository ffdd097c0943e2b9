// Package ledger fetches seller sales records from the remote sales ledger
// API, paginating through a bounded number of pages for a date range.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrLedger wraps every transport-level or non-2xx failure from the ledger.
// The client never retries; retry policy belongs to the caller.
var ErrLedger = errors.New("ledger request failed")

const maxResponseBytes = 8 << 20

// SaleRecord is one ledger entry. SellingPrice may be absent or null, in
// which case the record contributes nothing to an aggregate.
type SaleRecord struct {
	SellingPrice *float64 `json:"selling_price"`
}

// DateRange bounds a ledger query, both ends inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return fmt.Errorf("date range start %s is after end %s",
			r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}
	return nil
}

type Config struct {
	BaseURL  string        `envconfig:"BASE_URL" split_words:"true" required:"true"`
	PageSize int           `envconfig:"PAGE_SIZE" split_words:"true" default:"100"`
	MaxPages int           `envconfig:"MAX_PAGES" split_words:"true" default:"50"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Client reads the paginated sales endpoint using a per-call credential.
type Client struct {
	baseURL    string
	pageSize   int
	maxPages   int
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("ledger base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid ledger base url: %w", err)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 50
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		pageSize:   pageSize,
		maxPages:   maxPages,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func MustNewClient(cfg Config) *Client {
	c, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

type salesPage struct {
	Sales []SaleRecord `json:"sales"`
}

// FetchSales returns every sale in the range, walking pages until the server
// returns an empty page or the page ceiling is hit. Any failed page fails
// the whole fetch; no partial result is returned.
func (c *Client) FetchSales(ctx context.Context, credential string, r DateRange) ([]SaleRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	credential = NormalizeCredential(credential)
	if credential == "" {
		return nil, fmt.Errorf("%w: empty credential", ErrLedger)
	}

	var records []SaleRecord
	for page := 1; page <= c.maxPages; page++ {
		batch, err := c.fetchPage(ctx, credential, r, page)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		records = append(records, batch...)
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, credential string, r DateRange, page int) ([]SaleRecord, error) {
	q := url.Values{}
	q.Set("start_date", r.Start.Format(time.DateOnly))
	q.Set("end_date", r.End.Format(time.DateOnly))
	q.Set("page_number", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sales?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrLedger, err)
	}
	req.Header.Set("Authorization", "Key "+credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrLedger, page, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read page %d: %v", ErrLedger, page, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: page %d status=%d", ErrLedger, page, resp.StatusCode)
	}

	var parsed salesPage
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode page %d: %v", ErrLedger, page, err)
	}
	return parsed.Sales, nil
}
