// Package transaction provides the single-transaction lookup view.
package transaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"timelock-scope/internal/client"
	"timelock-scope/internal/theme"
	"timelock-scope/internal/views/alerts"
)

// Model holds the transaction view state.
type Model struct {
	Width  int
	Height int

	api     *client.Client
	input   textinput.Model
	spin    spinner.Model
	loading bool
	err     error
	result  *client.TxReport
	alerts  alerts.Model
}

type resultMsg struct{ report *client.TxReport }
type errMsg struct{ err error }

// New creates the transaction view.
func New(api *client.Client) Model {
	ti := textinput.New()
	ti.Placeholder = "transaction id (64 hex chars)"
	ti.CharLimit = 64
	ti.Width = 70
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return Model{api: api, input: ti, spin: sp, alerts: alerts.New()}
}

// Update handles view messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultMsg:
		m.loading = false
		m.result = msg.report
		m.alerts.SetAlerts(msg.report.Alerts)
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
	case "down":
		m.alerts.MoveDown()
		return m, nil
	case "up":
		m.alerts.MoveUp()
		return m, nil
	case " ":
		if !m.input.Focused() {
			m.alerts.Toggle()
			return m, nil
		}
	case "esc":
		m.input.Blur()
		return m, nil
	case "e":
		if !m.input.Focused() {
			m.input.Focus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	txid := strings.TrimSpace(m.input.Value())
	if txid == "" {
		return m, nil
	}
	if !client.ValidTxid(txid) {
		m.err = fmt.Errorf("invalid txid: want 64 hex characters")
		m.result = nil
		return m, nil
	}

	m.loading = true
	m.err = nil
	m.result = nil
	m.input.Blur()

	api := m.api
	fetch := func() tea.Msg {
		report, err := api.GetTransaction(context.Background(), txid)
		if err != nil {
			return errMsg{err}
		}
		return resultMsg{report}
	}
	return m, tea.Batch(m.spin.Tick, fetch)
}

// Loading reports whether a request is in flight.
func (m Model) Loading() bool { return m.loading }

// View renders the transaction view.
func (m Model) View() string {
	var sections []string

	sections = append(sections,
		theme.StyleHeader.Render("Transaction Analysis"),
		"  "+m.input.View(),
		theme.StyleDimmed.Render("  enter:analyze  e:edit txid  ↑/↓:alerts  space:expand"),
		"")

	switch {
	case m.loading:
		sections = append(sections, "  "+m.spin.View()+" analyzing...")
	case m.err != nil:
		sections = append(sections, "  "+theme.StyleError.Render(m.err.Error()))
	case m.result != nil:
		sections = append(sections, m.renderResult())
	default:
		sections = append(sections, theme.StyleDimmed.Render("  Enter a transaction id to analyze its timelocks."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderResult() string {
	r := m.result
	var lines []string

	row := func(k, v string) string {
		return "  " + theme.StyleDimmed.Render(fmt.Sprintf("%-14s", k)) + v
	}

	lt := r.Timelock.Locktime
	ltStr := string(lt.Kind)
	if lt.Kind != client.LocktimeNone {
		ltStr = fmt.Sprintf("%d (%s)", lt.Value, lt.Kind)
	}
	if lt.Active {
		ltStr += " " + lipgloss.NewStyle().Foreground(theme.ColorTimelock).Render("● active")
	}
	lines = append(lines, row("nLockTime", ltStr))

	for _, in := range r.Timelock.Inputs {
		seq := fmt.Sprintf("0x%08x", in.Sequence)
		var notes []string
		if in.RBFSignaling {
			notes = append(notes, "rbf")
		}
		if in.Relative != nil {
			rel := fmt.Sprintf("csv %d %s", in.Relative.Value, in.Relative.Kind)
			if in.Relative.Active {
				rel += " active"
			}
			notes = append(notes, rel)
		}
		if len(notes) > 0 {
			seq += "  " + theme.StyleDimmed.Render(strings.Join(notes, ", "))
		}
		lines = append(lines, row(fmt.Sprintf("input #%d", in.Index), seq))
	}

	classColor := theme.ClassificationColor(string(r.Lightning.Classification))
	classStr := lipgloss.NewStyle().Foreground(classColor).Render(string(r.Lightning.Classification))
	if r.Lightning.Confidence > 0 {
		classStr += theme.StyleDimmed.Render(fmt.Sprintf("  %.0f%%", r.Lightning.Confidence*100))
	}
	lines = append(lines, row("lightning", classStr))
	if r.Lightning.CLTVExpiry != nil {
		lines = append(lines, row("cltv expiry", fmt.Sprintf("%d", *r.Lightning.CLTVExpiry)))
	}
	if r.Lightning.ToSelfDelay != nil {
		lines = append(lines, row("to_self_delay", fmt.Sprintf("%d", *r.Lightning.ToSelfDelay)))
	}

	lines = append(lines, "",
		theme.StyleHeader.Render(fmt.Sprintf("  Alerts (%d)", len(r.Alerts))))
	a := m.alerts
	a.Width = m.Width
	lines = append(lines, a.View())

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
