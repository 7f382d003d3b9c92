package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMonitorQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/monitor" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("interval") != "10" || q.Get("min_severity") != "info" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/event-stream")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	sub, err := c.Monitor(context.Background(), MonitorOptions{Interval: 10, MinSeverity: "info"})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	sub.Close()
}

func TestMonitorHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("node not ready"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	_, err := c.Monitor(context.Background(), MonitorOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable || apiErr.Body != "node not ready" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestRecvDecodesNamedTxEvents(t *testing.T) {
	frames := ": keep-alive\n\n" +
		"event: tx\n" +
		"data: {\"txid\":\"" + testTxid + "\",\"alerts\":[{\"severity\":\"critical\"}]}\n\n" +
		"event: heartbeat\n" +
		"data: {}\n\n" +
		"event: tx\n" +
		"data: {not json\n\n" +
		"event: tx\n" +
		"data: {\"txid\":\"second\"}\n\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(frames))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	sub, err := c.Monitor(context.Background(), MonitorOptions{})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	defer sub.Close()

	first, err := sub.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if first.Txid != testTxid {
		t.Errorf("first txid = %q", first.Txid)
	}
	if sev, ok := first.MaxSeverity(); !ok || sev != SeverityCritical {
		t.Errorf("first MaxSeverity = %q, %v", sev, ok)
	}

	// The heartbeat frame and the malformed tx frame are both skipped.
	second, err := sub.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if second.Txid != "second" {
		t.Errorf("second txid = %q", second.Txid)
	}

	if _, err := sub.Recv(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF at stream end, got %v", err)
	}
}

func TestRecvMultiLineData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: tx\ndata: {\"txid\":\ndata: \"split\"}\n\n"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	sub, err := c.Monitor(context.Background(), MonitorOptions{})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	defer sub.Close()

	report, err := sub.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if report.Txid != "split" {
		t.Errorf("txid = %q", report.Txid)
	}
}

func TestCloseUnblocksRecv(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(srv.URL, time.Second)
	sub, err := c.Monitor(context.Background(), MonitorOptions{})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := sub.Recv()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Error("Recv on a closed stream should fail")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Recv did not return after Close")
	}
}
