// Package monitor provides the live mempool monitor view. It is the sole
// owner of the feed manager and drives its lifecycle from key commands.
package monitor

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"timelock-scope/internal/client"
	"timelock-scope/internal/feed"
	"timelock-scope/internal/theme"
	"timelock-scope/internal/views/alerts"
)

var minSeverities = []client.Severity{"info", "warning", "critical"}

// Model holds the monitor view state.
type Model struct {
	Width  int
	Height int

	manager  *feed.Manager
	interval int
	minSev   int // index into minSeverities

	selected int
	expanded bool
	alerts   alerts.Model
}

type startedMsg struct{}
type startFailedMsg struct{ err error }
type eventMsg struct{ event feed.Event }
type streamClosedMsg struct{ err error }

// New creates the monitor view around its feed manager.
func New(manager *feed.Manager, opts client.MonitorOptions) Model {
	interval := opts.Interval
	if interval <= 0 {
		interval = 10
	}
	minSev := 0
	for i, s := range minSeverities {
		if s == opts.MinSeverity {
			minSev = i
		}
	}
	return Model{
		manager:  manager,
		interval: interval,
		minSev:   minSev,
		alerts:   alerts.New(),
	}
}

// Close releases the subscription; called when the program shuts down.
func (m Model) Close() {
	m.manager.Close()
}

// FeedState reports the manager's connection state for the status bar.
func (m Model) FeedState() feed.State {
	return m.manager.State()
}

func (m Model) options() client.MonitorOptions {
	return client.MonitorOptions{
		Interval:    m.interval,
		MinSeverity: minSeverities[m.minSev],
	}
}

// startCmd opens the subscription; any previous handle is closed first by
// the manager.
func (m Model) startCmd() tea.Cmd {
	manager, opts := m.manager, m.options()
	return func() tea.Msg {
		if err := manager.Start(context.Background(), opts); err != nil {
			return startFailedMsg{err}
		}
		return startedMsg{}
	}
}

// readCmd blocks on the next stream event. It is re-armed from Update after
// each delivery, mirroring a read loop without a free-running goroutine.
func (m Model) readCmd() tea.Cmd {
	manager := m.manager
	return func() tea.Msg {
		event, err := manager.Next()
		if err != nil {
			return streamClosedMsg{err}
		}
		return eventMsg{event}
	}
}

// Update handles view messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case startedMsg:
		return m, m.readCmd()

	case startFailedMsg:
		return m, nil

	case eventMsg:
		// Keep the same event under the cursor as the list shifts down.
		if m.selected > 0 && m.selected < m.manager.Len()-1 {
			m.selected++
		}
		return m, m.readCmd()

	case streamClosedMsg:
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "s", "r":
		// Start and reconnect are the same action.
		return m, m.startCmd()

	case "S":
		m.manager.Stop()
		return m, nil

	case "c":
		m.manager.Clear()
		m.selected = 0
		m.expanded = false
		return m, nil

	case "+":
		m.interval++
		return m, nil

	case "-":
		if m.interval > 1 {
			m.interval--
		}
		return m, nil

	case "m":
		m.minSev = (m.minSev + 1) % len(minSeverities)
		return m, nil

	case "down", "j":
		if n := m.manager.Len(); n > 0 && m.selected < n-1 {
			m.selected++
			m.expanded = false
		}
		return m, nil

	case "up", "k":
		if m.selected > 0 {
			m.selected--
			m.expanded = false
		}
		return m, nil

	case " ", "enter":
		events := m.manager.Events()
		if m.selected < len(events) {
			m.expanded = !m.expanded
			if m.expanded {
				m.alerts.SetAlerts(events[m.selected].Alerts)
			}
		}
		return m, nil
	}
	return m, nil
}

// View renders the monitor view.
func (m Model) View() string {
	sections := []string{
		theme.StyleHeader.Render("Mempool Monitor"),
		m.renderStatus(),
		theme.StyleDimmed.Render("  s:start  S:stop  r:reconnect  c:clear  +/-:interval  m:severity  ↑/↓:events  space:alerts"),
		"",
	}
	sections = append(sections, m.renderEvents())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatus() string {
	state := m.manager.State()
	dot := lipgloss.NewStyle().Foreground(theme.ConnectionColor(string(state))).Render("●")

	status := fmt.Sprintf("  %s %s", dot, state)
	if state == feed.StateError {
		if err := m.manager.Err(); err != nil {
			status += "  " + theme.StyleError.Render(truncate(err.Error(), m.Width-40))
		}
		status += theme.StyleDimmed.Render("  (r to reconnect)")
	}
	status += theme.StyleDimmed.Render(fmt.Sprintf("  |  interval %ds  min %s  |  %d events",
		m.interval, minSeverities[m.minSev], m.manager.Len()))
	return status
}

func (m Model) renderEvents() string {
	events := m.manager.Events()
	if len(events) == 0 {
		return theme.StyleDimmed.Render("  No events yet — press s to start watching the mempool.")
	}

	visible := m.Height - 8
	if visible < 5 {
		visible = 5
	}

	var lines []string
	for i, ev := range events {
		if i >= visible {
			lines = append(lines, theme.StyleDimmed.Render(
				fmt.Sprintf("  … %d older events", len(events)-visible)))
			break
		}

		prefix := "  "
		if i == m.selected {
			prefix = "> "
		}

		ts := theme.StyleDimmed.Render(ev.ReceivedAt.Format("15:04:05"))

		sevStr := theme.StyleDimmed.Render("—            ")
		if sev, ok := ev.MaxSeverity(); ok {
			style := lipgloss.NewStyle().Foreground(theme.SeverityColor(string(sev)))
			sevStr = style.Render(theme.SeverityGlyph(string(sev)) + " " + fmt.Sprintf("%-12s", sev))
		}

		lock := " "
		if ev.ActiveTimelock() {
			lock = lipgloss.NewStyle().Foreground(theme.ColorTimelock).Render("●")
		}

		classStr := lipgloss.NewStyle().
			Foreground(theme.ClassificationColor(string(ev.Lightning.Classification))).
			Render(fmt.Sprintf("%-12s", ev.Lightning.Classification))

		lines = append(lines, fmt.Sprintf("%s%s %s %s %s %s %s",
			prefix, ts, lock, shortTxid(ev.Txid), classStr, sevStr,
			theme.StyleDimmed.Render(fmt.Sprintf("%d alerts", len(ev.Alerts)))))

		if m.expanded && i == m.selected {
			a := m.alerts
			a.Width = m.Width
			lines = append(lines, a.View())
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func shortTxid(txid string) string {
	if len(txid) > 16 {
		return txid[:8] + "…" + txid[len(txid)-8:]
	}
	return txid
}

func truncate(s string, max int) string {
	if max < 10 {
		max = 10
	}
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
