package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const testTxid = "abc1230000000000000000000000000000000000000000000000000000000000"

func newTestClient(url string, timeout time.Duration) *Client {
	return New(Options{BaseURL: url, Timeout: timeout}, zerolog.Nop())
}

func TestValidTxid(t *testing.T) {
	tests := []struct {
		txid string
		want bool
	}{
		{testTxid, true},
		{"abc123", false},
		{"", false},
		{"zz" + testTxid[2:], false},
	}
	for _, tt := range tests {
		if got := ValidTxid(tt.txid); got != tt.want {
			t.Errorf("ValidTxid(%q) = %v, want %v", tt.txid, got, tt.want)
		}
	}
}

func TestGetTransactionRejectsBadTxid(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	if _, err := c.GetTransaction(context.Background(), "nonsense"); err == nil {
		t.Fatal("expected error for invalid txid")
	}
	if called {
		t.Error("invalid txid should be rejected before any request is made")
	}
}

func TestGetTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tx/"+testTxid {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(TxReport{
			Txid:     testTxid,
			Timelock: TimelockInfo{AnyActive: true},
			Alerts:   []Alert{{ID: "a1", Severity: SeverityCritical, DetectionType: DetectShortCLTVDelta}},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	report, err := c.GetTransaction(context.Background(), testTxid)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if report.Txid != testTxid {
		t.Errorf("txid = %q", report.Txid)
	}
	if !report.ActiveTimelock() {
		t.Error("expected active timelock")
	}
	if sev, ok := report.MaxSeverity(); !ok || sev != SeverityCritical {
		t.Errorf("MaxSeverity = %q, %v", sev, ok)
	}
}

func TestGetBlockQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/block/938587" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("filter") != "alerts" || q.Get("limit") != "50" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if q.Has("offset") {
			t.Error("zero offset should be omitted")
		}
		json.NewEncoder(w).Encode(BlockResult{
			Height:               938587,
			TotalTransactions:    3120,
			ReturnedTransactions: 2,
			Transactions: []TxReport{
				{Txid: "t1", Alerts: []Alert{{Severity: SeverityWarning}}},
				{Txid: "t2", Alerts: []Alert{{Severity: SeverityCritical}}},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	res, err := c.GetBlock(context.Background(), 938587, BlockOptions{Filter: FilterAlerts, Limit: 50})
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if res.ReturnedTransactions > 50 || res.ReturnedTransactions > res.TotalTransactions {
		t.Errorf("returned=%d total=%d violates bounds", res.ReturnedTransactions, res.TotalTransactions)
	}
	for _, tx := range res.Transactions {
		if len(tx.Alerts) == 0 {
			t.Errorf("filter=alerts returned %s with no alerts", tx.Txid)
		}
	}
}

func TestScanQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start") != "938000" || q.Get("end") != "938010" || q.Get("severity") != "critical" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if q.Has("detection_type") {
			t.Error("unset detection_type should be omitted")
		}
		json.NewEncoder(w).Encode(ScanResult{
			StartHeight: 938000,
			EndHeight:   938010,
			CurrentTip:  938500,
			TotalAlerts: 2,
			Alerts: []Alert{
				{ID: "a1", Severity: SeverityCritical},
				{ID: "a2", Severity: SeverityCritical},
			},
		})
	}))
	defer srv.Close()

	end := int64(938010)
	c := newTestClient(srv.URL, time.Second)
	res, err := c.Scan(context.Background(), ScanOptions{Start: 938000, End: &end, Severity: SeverityCritical})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.TotalAlerts != len(res.Alerts) {
		t.Errorf("total_alerts=%d but %d alerts returned", res.TotalAlerts, len(res.Alerts))
	}
	for _, a := range res.Alerts {
		if a.Severity != SeverityCritical {
			t.Errorf("severity filter leaked a %s alert", a.Severity)
		}
	}
}

func TestScanOmitsUnsetParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "start=100" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(ScanResult{StartHeight: 100})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	if _, err := c.Scan(context.Background(), ScanOptions{Start: 100}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
}

func TestLightningQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/lightning" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("start") != "938000" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(LightningResult{
			StartHeight:   938000,
			Commitments:   4,
			HTLCTimeouts:  1,
			HTLCSuccesses: 2,
			CLTVExpiryDistribution: []CLTVBucket{
				{Expiry: 938100, Count: 3},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	res, err := c.Lightning(context.Background(), LightningOptions{Start: 938000})
	if err != nil {
		t.Fatalf("Lightning: %v", err)
	}
	if res.Commitments != 4 || len(res.CLTVExpiryDistribution) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestHTTPErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("transaction not found in mempool or chain"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	_, err := c.GetTransaction(context.Background(), testTxid)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("status = %d", apiErr.Status)
	}
	if apiErr.Body != "transaction not found in mempool or chain" {
		t.Errorf("body = %q", apiErr.Body)
	}
}

func TestHTTPErrorEmptyBodyFallsBackToStatusLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	_, err := c.Scan(context.Background(), ScanOptions{Start: 1})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Body == "" {
		t.Error("body should fall back to the status line")
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 20*time.Millisecond)
	_, err := c.Scan(context.Background(), ScanOptions{Start: 1})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("IsTimeout(%v) = false", err)
	}
}

func TestDecodeDetailsByType(t *testing.T) {
	a := Alert{
		DetectionType: DetectShortCLTVDelta,
		Details:       json.RawMessage(`{"cltv_expiry":938100,"current_tip":938095,"delta":5,"threshold":18}`),
	}
	got, err := a.DecodeDetails()
	if err != nil {
		t.Fatalf("DecodeDetails: %v", err)
	}
	d, ok := got.(*CLTVDeltaDetails)
	if !ok {
		t.Fatalf("expected *CLTVDeltaDetails, got %T", got)
	}
	if d.Delta != 5 || d.Threshold != 18 {
		t.Errorf("unexpected details %+v", d)
	}

	empty := Alert{DetectionType: DetectTimelockMixing}
	if got, err := empty.DecodeDetails(); err != nil || got != nil {
		t.Errorf("empty details should decode to nil, got %v, %v", got, err)
	}
}

func TestMaxSeverityDerivation(t *testing.T) {
	mixed := TxReport{Alerts: []Alert{
		{Severity: SeverityWarning},
		{Severity: SeverityInformational},
	}}
	if sev, ok := mixed.MaxSeverity(); !ok || sev != SeverityWarning {
		t.Errorf("MaxSeverity = %q, %v; want warning", sev, ok)
	}

	none := TxReport{}
	if _, ok := none.MaxSeverity(); ok {
		t.Error("report with no alerts should have no maximum severity")
	}
}
