package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"timelock-scope/internal/client"
)

func newManager(url string, capacity int) *Manager {
	api := client.New(client.Options{BaseURL: url, Timeout: time.Second}, zerolog.Nop())
	return NewManager(api, capacity, zerolog.Nop())
}

// streamServer serves a fixed SSE body per request and signals when the
// client hangs up.
func streamServer(t *testing.T, body string, closed chan<- struct{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(body))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		if closed != nil {
			closed <- struct{}{}
		}
	}))
}

func txFrame(txid string) string {
	return "event: tx\ndata: {\"txid\":\"" + txid + "\"}\n\n"
}

func TestBufferNeverExceedsCapacity(t *testing.T) {
	const total = 250
	var body string
	for i := 0; i < total; i++ {
		body += txFrame(strconv.Itoa(i))
	}
	srv := streamServer(t, body, nil)
	defer srv.Close()

	m := newManager(srv.URL, 200)
	if err := m.Start(context.Background(), client.MonitorOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Close()

	for i := 0; i < total; i++ {
		if _, err := m.Next(); err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
	}

	if m.Len() != 200 {
		t.Fatalf("buffer length = %d, want 200", m.Len())
	}
	events := m.Events()
	if events[0].Txid != strconv.Itoa(total-1) {
		t.Errorf("newest event = %q, want %d", events[0].Txid, total-1)
	}
	if events[199].Txid != strconv.Itoa(total-200) {
		t.Errorf("oldest kept event = %q, want %d", events[199].Txid, total-200)
	}
}

func TestStartWhileConnectedReplacesHandle(t *testing.T) {
	closed := make(chan struct{}, 4)
	srv := streamServer(t, ": hello\n\n", closed)
	defer srv.Close()

	m := newManager(srv.URL, 0)
	if err := m.Start(context.Background(), client.MonitorOptions{}); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := m.Start(context.Background(), client.MonitorOptions{}); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	defer m.Close()

	// The first handle must have been closed before the second opened.
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("previous handle was not closed on restart")
	}
	if m.State() != StateConnected {
		t.Errorf("state = %q, want connected", m.State())
	}

	// Exactly one connection should still be live.
	select {
	case <-closed:
		t.Error("the replacement handle was closed too")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStopClosesHandleAndAllowsRestart(t *testing.T) {
	closed := make(chan struct{}, 4)
	srv := streamServer(t, ": hello\n\n", closed)
	defer srv.Close()

	m := newManager(srv.URL, 0)
	if err := m.Start(context.Background(), client.MonitorOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.Stop()
	if m.State() != StateDisconnected {
		t.Errorf("state = %q, want disconnected", m.State())
	}
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not close the handle")
	}
	if _, err := m.Next(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Next after Stop = %v, want ErrNotConnected", err)
	}

	if err := m.Start(context.Background(), client.MonitorOptions{}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer m.Close()
	if m.State() != StateConnected {
		t.Errorf("state after restart = %q, want connected", m.State())
	}
}

func TestCloseWhileConnected(t *testing.T) {
	closed := make(chan struct{}, 1)
	srv := streamServer(t, ": hello\n\n", closed)
	defer srv.Close()

	m := newManager(srv.URL, 0)
	if err := m.Start(context.Background(), client.MonitorOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Close()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not release the handle")
	}
}

func TestStartFailureEntersErrorStateThenReconnects(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	m := newManager(srv.URL, 0)
	if err := m.Start(context.Background(), client.MonitorOptions{}); err == nil {
		t.Fatal("expected first Start to fail")
	}
	if m.State() != StateError {
		t.Errorf("state = %q, want error", m.State())
	}
	if m.Err() == nil {
		t.Error("Err() should report the open failure")
	}

	// Reconnect is just another Start.
	if err := m.Start(context.Background(), client.MonitorOptions{}); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	defer m.Close()
	if m.State() != StateConnected || m.Err() != nil {
		t.Errorf("state = %q err = %v after reconnect", m.State(), m.Err())
	}
}

func TestStreamDropEntersErrorState(t *testing.T) {
	// Server sends one event, then ends the response.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(txFrame("only")))
	}))
	defer srv.Close()

	m := newManager(srv.URL, 0)
	if err := m.Start(context.Background(), client.MonitorOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := m.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := m.Next(); err == nil {
		t.Fatal("expected stream end error")
	}
	if m.State() != StateError {
		t.Errorf("state = %q, want error", m.State())
	}
	if m.Len() != 1 {
		t.Errorf("buffered events = %d, want 1", m.Len())
	}
}

func TestMalformedEventDoesNotChangeStateOrBuffer(t *testing.T) {
	body := "event: tx\ndata: garbage{\n\n" + txFrame("good")
	srv := streamServer(t, body, nil)
	defer srv.Close()

	m := newManager(srv.URL, 0)
	if err := m.Start(context.Background(), client.MonitorOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Close()

	ev, err := m.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Txid != "good" {
		t.Errorf("txid = %q, malformed frame should be dropped", ev.Txid)
	}
	if m.State() != StateConnected {
		t.Errorf("state = %q, want connected", m.State())
	}
	if m.Len() != 1 {
		t.Errorf("buffered events = %d, want 1", m.Len())
	}
}

func TestClearEmptiesBufferOnly(t *testing.T) {
	var body string
	for i := 0; i < 5; i++ {
		body += txFrame(fmt.Sprintf("tx%d", i))
	}
	srv := streamServer(t, body+": pad\n\n", nil)
	defer srv.Close()

	m := newManager(srv.URL, 0)
	if err := m.Start(context.Background(), client.MonitorOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Close()
	for i := 0; i < 5; i++ {
		if _, err := m.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}

	m.Clear()
	if m.Len() != 0 {
		t.Errorf("buffer length = %d after clear", m.Len())
	}
	if m.State() != StateConnected {
		t.Errorf("clear changed state to %q", m.State())
	}
}

func TestStartReceiveScenario(t *testing.T) {
	body := "event: tx\ndata: {\"txid\":\"abc123\",\"alerts\":[{\"severity\":\"critical\",\"detection_type\":\"short_cltv_delta\"}]}\n\n"
	srv := streamServer(t, body, nil)
	defer srv.Close()

	m := newManager(srv.URL, 0)
	err := m.Start(context.Background(), client.MonitorOptions{Interval: 10, MinSeverity: "info"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Close()
	if m.State() != StateConnected {
		t.Fatalf("state = %q, want connected", m.State())
	}

	ev, err := m.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("event count = %d, want 1", m.Len())
	}
	if sev, ok := ev.MaxSeverity(); !ok || sev != client.SeverityCritical {
		t.Errorf("MaxSeverity = %q, %v; want critical", sev, ok)
	}
	if ev.ReceivedAt.IsZero() {
		t.Error("event should carry a receipt timestamp")
	}
}

func TestPushOrdering(t *testing.T) {
	m := NewManager(nil, 3, zerolog.Nop())
	for i := 0; i < 5; i++ {
		m.mu.Lock()
		m.push(Event{TxReport: client.TxReport{Txid: strconv.Itoa(i)}})
		m.mu.Unlock()
	}
	events := m.Events()
	if len(events) != 3 {
		t.Fatalf("length = %d, want 3", len(events))
	}
	for i, want := range []string{"4", "3", "2"} {
		if events[i].Txid != want {
			t.Errorf("events[%d] = %q, want %q", i, events[i].Txid, want)
		}
	}
}
