// Package scan provides the block-range security scan view.
package scan

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"timelock-scope/internal/client"
	"timelock-scope/internal/theme"
	"timelock-scope/internal/views/alerts"
)

var severities = []client.Severity{"", client.SeverityCritical, client.SeverityWarning, client.SeverityInformational}

// Model holds the scan view state.
type Model struct {
	Width  int
	Height int

	api       *client.Client
	start     textinput.Model
	end       textinput.Model
	focus     int
	severity  int // index into severities
	detection int // 0 = any, otherwise index+1 into client.DetectionTypes

	spin    spinner.Model
	loading bool
	err     error
	result  *client.ScanResult
	alerts  alerts.Model
}

type resultMsg struct{ result *client.ScanResult }
type errMsg struct{ err error }

// New creates the scan view.
func New(api *client.Client) Model {
	start := textinput.New()
	start.Placeholder = "start height"
	start.CharLimit = 9
	start.Width = 12
	start.Focus()

	end := textinput.New()
	end.Placeholder = "end (optional)"
	end.CharLimit = 9
	end.Width = 14

	return Model{
		api:    api,
		start:  start,
		end:    end,
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		alerts: alerts.New(),
	}
}

// Update handles view messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultMsg:
		m.loading = false
		m.result = msg.result
		m.alerts.SetAlerts(msg.result.Alerts)
		return m, nil

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	switch msg.String() {
	case "enter":
		return m.submit()

	case "ctrl+s":
		m.severity = (m.severity + 1) % len(severities)
		return m, nil

	case "ctrl+d":
		m.detection = (m.detection + 1) % (len(client.DetectionTypes) + 1)
		return m, nil

	case "left", "right":
		if m.focus == 0 {
			m.start.Blur()
			m.end.Focus()
			m.focus = 1
		} else {
			m.end.Blur()
			m.start.Focus()
			m.focus = 0
		}
		return m, nil

	case "down":
		m.alerts.MoveDown()
		return m, nil

	case "up":
		m.alerts.MoveUp()
		return m, nil

	case " ":
		m.alerts.Toggle()
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.start, cmd = m.start.Update(msg)
	} else {
		m.end, cmd = m.end.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	startStr := strings.TrimSpace(m.start.Value())
	if startStr == "" {
		m.err = fmt.Errorf("start height is required")
		return m, nil
	}
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		m.err = fmt.Errorf("invalid start height %q", startStr)
		m.result = nil
		return m, nil
	}

	opts := client.ScanOptions{Start: start, Severity: severities[m.severity]}
	if v := strings.TrimSpace(m.end.Value()); v != "" {
		end, err := strconv.ParseInt(v, 10, 64)
		if err != nil || end < start {
			m.err = fmt.Errorf("invalid end height %q", v)
			m.result = nil
			return m, nil
		}
		opts.End = &end
	}
	if m.detection > 0 {
		opts.DetectionType = client.DetectionTypes[m.detection-1]
	}

	m.loading = true
	m.err = nil
	m.result = nil

	api := m.api
	fetch := func() tea.Msg {
		result, err := api.Scan(context.Background(), opts)
		if err != nil {
			return errMsg{err}
		}
		return resultMsg{result}
	}
	return m, tea.Batch(m.spin.Tick, fetch)
}

// Loading reports whether a request is in flight.
func (m Model) Loading() bool { return m.loading }

func (m Model) severityLabel() string {
	if severities[m.severity] == "" {
		return "any"
	}
	return string(severities[m.severity])
}

func (m Model) detectionLabel() string {
	if m.detection == 0 {
		return "any"
	}
	t := client.DetectionTypes[m.detection-1]
	if entry, ok := client.LookupDetection(t); ok {
		return entry.Name
	}
	return string(t)
}

// View renders the scan view.
func (m Model) View() string {
	form := fmt.Sprintf("  %s  %s  severity: %s  type: %s",
		m.start.View(), m.end.View(),
		theme.StyleAccent.Render(m.severityLabel()),
		theme.StyleAccent.Render(m.detectionLabel()))

	sections := []string{
		theme.StyleHeader.Render("Security Scan"),
		form,
		theme.StyleDimmed.Render("  enter:scan  ←/→:field  ctrl+s:severity  ctrl+d:type  ↑/↓:alerts  space:expand"),
		"",
	}

	switch {
	case m.loading:
		sections = append(sections, "  "+m.spin.View()+" scanning range (this can take a while)...")
	case m.err != nil:
		sections = append(sections, "  "+theme.StyleError.Render(m.err.Error()))
	case m.result != nil:
		sections = append(sections, m.renderResult())
	default:
		sections = append(sections, theme.StyleDimmed.Render("  Scan a block range for timelock and Lightning anomalies."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderResult() string {
	r := m.result
	header := fmt.Sprintf("  Blocks %d–%d  (tip %d)  —  %d alerts",
		r.StartHeight, r.EndHeight, r.CurrentTip, r.TotalAlerts)

	a := m.alerts
	a.Width = m.Width
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleHeader.Render(header),
		"",
		a.View(),
	)
}
