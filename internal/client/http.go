package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds request/response calls. Range scans can take a long
// time on the backend, so the bound is generous.
const DefaultTimeout = 120 * time.Second

// APIError is a non-success response from the backend.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Body)
}

// IsTimeout reports whether err is a request that ran out of time.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Timeout()
	}
	return false
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client makes REST calls to the analysis backend and opens the monitor
// event stream. It is safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// New creates a client targeting the given base URL
// (e.g. "http://127.0.0.1:8080").
func New(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: opts.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "client").Logger(),
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ValidTxid reports whether s parses as a transaction id (64 hex chars).
func ValidTxid(s string) bool {
	_, err := chainhash.NewHashFromStr(s)
	return err == nil && len(s) == chainhash.MaxHashStringSize
}

// GetTransaction fetches /api/tx/{txid}.
func (c *Client) GetTransaction(ctx context.Context, txid string) (*TxReport, error) {
	if !ValidTxid(txid) {
		return nil, fmt.Errorf("invalid txid %q", txid)
	}
	var out TxReport
	if err := c.get(ctx, "/api/tx/"+txid, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BlockFilter selects which transactions /api/block returns.
type BlockFilter string

const (
	FilterAll       BlockFilter = "all"
	FilterTimelocks BlockFilter = "timelocks"
	FilterAlerts    BlockFilter = "alerts"
)

// BlockOptions parameterise GetBlock. Zero values are omitted from the query.
type BlockOptions struct {
	Filter BlockFilter
	Offset int
	Limit  int
}

// GetBlock fetches /api/block/{height}.
func (c *Client) GetBlock(ctx context.Context, height int64, opts BlockOptions) (*BlockResult, error) {
	if height < 0 {
		return nil, fmt.Errorf("invalid block height %d", height)
	}
	q := url.Values{}
	if opts.Filter != "" {
		q.Set("filter", string(opts.Filter))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	var out BlockResult
	if err := c.get(ctx, "/api/block/"+strconv.FormatInt(height, 10), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScanOptions parameterise Scan. Start is required; the rest are omitted
// from the query when unset.
type ScanOptions struct {
	Start         int64
	End           *int64
	Severity      Severity
	DetectionType DetectionType
}

// Scan fetches /api/scan over a block range.
func (c *Client) Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	q := url.Values{}
	q.Set("start", strconv.FormatInt(opts.Start, 10))
	if opts.End != nil {
		q.Set("end", strconv.FormatInt(*opts.End, 10))
	}
	if opts.Severity != "" {
		q.Set("severity", string(opts.Severity))
	}
	if opts.DetectionType != "" {
		q.Set("detection_type", string(opts.DetectionType))
	}
	var out ScanResult
	if err := c.get(ctx, "/api/scan", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LightningOptions parameterise Lightning. Start is required.
type LightningOptions struct {
	Start int64
	End   *int64
}

// Lightning fetches /api/lightning over a block range.
func (c *Client) Lightning(ctx context.Context, opts LightningOptions) (*LightningResult, error) {
	q := url.Values{}
	q.Set("start", strconv.FormatInt(opts.Start, 10))
	if opts.End != nil {
		q.Set("end", strconv.FormatInt(*opts.End, 10))
	}
	var out LightningResult
	if err := c.get(ctx, "/api/lightning", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get performs one GET and decodes a 2xx body into out. No retries; a failed
// attempt surfaces to the caller as-is.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if IsTimeout(err) {
			return fmt.Errorf("GET %s: request timed out: %w", path, err)
		}
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		apiErr := &APIError{Status: resp.StatusCode, Body: string(body)}
		if readErr != nil || len(body) == 0 {
			apiErr.Body = resp.Status
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("request failed")
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode response: %w", path, err)
	}
	return nil
}
