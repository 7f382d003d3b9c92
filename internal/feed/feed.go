// Package feed owns the live monitor subscription: its lifecycle, the
// bounded event buffer, and the connection state shown by the monitor view.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"timelock-scope/internal/client"
)

// State is the subscription's connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// DefaultCapacity bounds the event buffer.
const DefaultCapacity = 200

// ErrNotConnected is returned by Next when no subscription is open.
var ErrNotConnected = errors.New("feed: not connected")

// Event is a received monitor report stamped with its arrival time. Events
// are immutable once buffered.
type Event struct {
	client.TxReport
	ReceivedAt time.Time
}

// Manager exclusively owns the monitor subscription handle and the event
// buffer. At most one handle is live at any time; Start closes any existing
// handle before opening a new one. Next runs on a reader goroutine while
// Start/Stop/Clear are called from the UI loop, so a mutex guards all state.
type Manager struct {
	api      *client.Client
	logger   zerolog.Logger
	capacity int

	mu      sync.Mutex
	state   State
	sub     *client.Subscription
	events  []Event
	lastErr error
}

// NewManager creates a disconnected manager. capacity <= 0 selects
// DefaultCapacity.
func NewManager(api *client.Client, capacity int, logger zerolog.Logger) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{
		api:      api,
		logger:   logger.With().Str("component", "feed").Logger(),
		capacity: capacity,
		state:    StateDisconnected,
	}
}

// Start opens a subscription with the given options. Any previously open
// handle is closed first, so a Start while connected is a clean replacement
// and a Start from the error state is a reconnect. On failure the manager
// enters the error state.
func (m *Manager) Start(ctx context.Context, opts client.MonitorOptions) error {
	m.mu.Lock()
	if m.sub != nil {
		m.sub.Close()
		m.sub = nil
	}
	m.mu.Unlock()

	sub, err := m.api.Monitor(ctx, opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = StateError
		m.lastErr = err
		m.logger.Warn().Err(err).Msg("subscription failed to open")
		return err
	}
	if m.sub != nil {
		// A concurrent Start won the race; keep its handle, drop ours.
		sub.Close()
		return nil
	}
	m.sub = sub
	m.state = StateConnected
	m.lastErr = nil
	m.logger.Info().Int("interval", opts.Interval).Str("min_severity", string(opts.MinSeverity)).Msg("subscription open")
	return nil
}

// Stop closes the active handle synchronously and returns to the
// disconnected state. Safe to call in any state.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		m.sub.Close()
		m.sub = nil
	}
	m.state = StateDisconnected
}

// Close is the teardown hook for view disposal: it unconditionally closes
// any live handle regardless of state.
func (m *Manager) Close() {
	m.Stop()
}

// Next blocks until the next event arrives on the active subscription,
// buffers it, and returns it. A stream failure closes the handle and moves
// the manager to the error state. Malformed stream payloads never reach
// here; the subscription drops them internally.
func (m *Manager) Next() (Event, error) {
	m.mu.Lock()
	sub := m.sub
	m.mu.Unlock()
	if sub == nil {
		return Event{}, ErrNotConnected
	}

	report, err := sub.Recv()
	if err != nil {
		m.mu.Lock()
		// A reader left over from a replaced handle must not clobber the
		// state of the current one.
		if m.sub == sub {
			m.sub = nil
			m.state = StateError
			m.lastErr = err
			m.logger.Warn().Err(err).Msg("subscription dropped")
		}
		m.mu.Unlock()
		sub.Close()
		return Event{}, err
	}

	ev := Event{TxReport: *report, ReceivedAt: time.Now()}
	m.mu.Lock()
	m.push(ev)
	m.mu.Unlock()
	return ev, nil
}

// push prepends ev and truncates the tail at capacity. Callers hold m.mu.
func (m *Manager) push(ev Event) {
	if len(m.events) < m.capacity {
		m.events = append(m.events, Event{})
	}
	copy(m.events[1:], m.events)
	m.events[0] = ev
}

// Clear empties the buffer. Connection state and the active handle are
// untouched.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the error that moved the manager into the error state, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Len returns the number of buffered events.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// Events returns a snapshot of the buffer, newest first.
func (m *Manager) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
