package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// MonitorOptions parameterise the live mempool subscription. Zero values are
// omitted from the query and left to backend defaults.
type MonitorOptions struct {
	Interval    int // polling interval in seconds
	MinSeverity Severity
}

// Monitor opens the /api/monitor event stream and returns a live
// subscription. Ownership of the subscription transfers to the caller, who
// must Close it. The streaming response has no client-side timeout; it stays
// open until closed, the context is cancelled, or the server drops it.
func (c *Client) Monitor(ctx context.Context, opts MonitorOptions) (*Subscription, error) {
	q := url.Values{}
	if opts.Interval > 0 {
		q.Set("interval", strconv.Itoa(opts.Interval))
	}
	if opts.MinSeverity != "" {
		q.Set("min_severity", string(opts.MinSeverity))
	}
	u := c.baseURL + "/api/monitor"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The regular client enforces a request timeout, which would sever a
	// long-lived stream. Streams get a transport-only client.
	stream := &http.Client{Transport: c.client.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET /api/monitor: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		resp.Body.Close()
		msg := string(body)
		if msg == "" {
			msg = resp.Status
		}
		return nil, &APIError{Status: resp.StatusCode, Body: msg}
	}

	sub := &Subscription{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
		logger:  c.logger.With().Str("component", "monitor_stream").Logger(),
	}
	sub.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return sub, nil
}

// Subscription is a live handle on the monitor event stream. It is owned by
// exactly one consumer; Recv must not be called concurrently.
type Subscription struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Recv blocks until the next "tx" event arrives and returns its decoded
// payload. Malformed payloads are logged and skipped, never surfaced. A
// non-nil error means the stream is over (closed, cancelled, or dropped);
// the subscription is unusable afterwards.
func (s *Subscription) Recv() (*TxReport, error) {
	var event string
	var data strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		switch {
		case line == "":
			// Blank line ends a frame.
			if event == "tx" && data.Len() > 0 {
				var report TxReport
				if err := json.Unmarshal([]byte(data.String()), &report); err != nil {
					s.logger.Warn().Err(err).Msg("dropping malformed stream event")
				} else {
					return &report, nil
				}
			}
			event = ""
			data.Reset()

		case strings.HasPrefix(line, ":"):
			// Comment / keep-alive.

		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))

		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))

		default:
			// id:, retry:, and unknown fields are ignored.
		}
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("monitor stream: %w", err)
	}
	return nil, io.EOF
}

// Close tears the stream down. Safe to call more than once and from a
// different goroutine than Recv; a blocked Recv returns with an error.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
