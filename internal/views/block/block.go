// Package block provides the block explorer view.
package block

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

var filters = []client.BlockFilter{client.FilterAll, client.FilterTimelocks, client.FilterAlerts}

// Model holds the block view state.
type Model struct {
	Width  int
	Height int

	api    *client.Client
	height textinput.Model
	limit  textinput.Model
	offset textinput.Model
	focus  int // index into inputs()
	filter int // index into filters

	spin    spinner.Model
	loading bool
	err     error
	result  *client.BlockResult

	selected int
	expanded map[int]bool
	alerts   alerts.Model
}

type resultMsg struct{ result *client.BlockResult }
type errMsg struct{ err error }

// New creates the block view.
func New(api *client.Client) Model {
	height := textinput.New()
	height.Placeholder = "height"
	height.CharLimit = 9
	height.Width = 10
	height.Focus()

	limit := textinput.New()
	limit.Placeholder = "limit"
	limit.CharLimit = 5
	limit.Width = 6

	offset := textinput.New()
	offset.Placeholder = "offset"
	offset.CharLimit = 6
	offset.Width = 7

	return Model{
		api:      api,
		height:   height,
		limit:    limit,
		offset:   offset,
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		expanded: make(map[int]bool),
		alerts:   alerts.New(),
	}
}

func (m *Model) inputs() []*textinput.Model {
	return []*textinput.Model{&m.height, &m.limit, &m.offset}
}

// Update handles view messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultMsg:
		m.loading = false
		m.result = msg.result
		m.selected = 0
		m.expanded = make(map[int]bool)
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

	case "ctrl+f":
		m.filter = (m.filter + 1) % len(filters)
		return m, nil

	case "right":
		m.focusInput((m.focus + 1) % len(m.inputs()))
		return m, nil

	case "left":
		m.focusInput((m.focus - 1 + len(m.inputs())) % len(m.inputs()))
		return m, nil

	case "down":
		if m.result != nil && len(m.result.Transactions) > 0 {
			m.selected = (m.selected + 1) % len(m.result.Transactions)
		}
		return m, nil

	case "up":
		if m.result != nil && len(m.result.Transactions) > 0 {
			m.selected = (m.selected - 1 + len(m.result.Transactions)) % len(m.result.Transactions)
		}
		return m, nil

	case " ":
		if m.result != nil && len(m.result.Transactions) > 0 {
			m.expanded[m.selected] = !m.expanded[m.selected]
			if m.expanded[m.selected] {
				m.alerts.SetAlerts(m.result.Transactions[m.selected].Alerts)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	in := m.inputs()[m.focus]
	*in, cmd = in.Update(msg)
	return m, cmd
}

func (m *Model) focusInput(i int) {
	for j, in := range m.inputs() {
		if j == i {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	m.focus = i
}

func (m Model) submit() (Model, tea.Cmd) {
	heightStr := strings.TrimSpace(m.height.Value())
	if heightStr == "" {
		return m, nil
	}
	height, err := strconv.ParseInt(heightStr, 10, 64)
	if err != nil || height < 0 {
		m.err = fmt.Errorf("invalid block height %q", heightStr)
		m.result = nil
		return m, nil
	}

	opts := client.BlockOptions{Filter: filters[m.filter]}
	if v := strings.TrimSpace(m.limit.Value()); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := strings.TrimSpace(m.offset.Value()); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}

	m.loading = true
	m.err = nil
	m.result = nil

	api := m.api
	fetch := func() tea.Msg {
		result, err := api.GetBlock(context.Background(), height, opts)
		if err != nil {
			return errMsg{err}
		}
		return resultMsg{result}
	}
	return m, tea.Batch(m.spin.Tick, fetch)
}

// Loading reports whether a request is in flight.
func (m Model) Loading() bool { return m.loading }

// View renders the block view.
func (m Model) View() string {
	filterStr := theme.StyleAccent.Render(string(filters[m.filter]))
	form := fmt.Sprintf("  %s  %s  %s  filter: %s",
		m.height.View(), m.limit.View(), m.offset.View(), filterStr)

	sections := []string{
		theme.StyleHeader.Render("Block Explorer"),
		form,
		theme.StyleDimmed.Render("  enter:fetch  ←/→:field  ctrl+f:filter  ↑/↓:tx  space:expand"),
		"",
	}

	switch {
	case m.loading:
		sections = append(sections, "  "+m.spin.View()+" fetching block...")
	case m.err != nil:
		sections = append(sections, "  "+theme.StyleError.Render(m.err.Error()))
	case m.result != nil:
		sections = append(sections, m.renderResult())
	default:
		sections = append(sections, theme.StyleDimmed.Render("  Enter a block height to list its analyzed transactions."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderResult() string {
	r := m.result
	header := fmt.Sprintf("  Block %d — %d of %d transactions",
		r.Height, r.ReturnedTransactions, r.TotalTransactions)
	lines := []string{theme.StyleHeader.Render(header), ""}

	if len(r.Transactions) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  No matching transactions"))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for i, tx := range r.Transactions {
		prefix := "  "
		if i == m.selected {
			prefix = "> "
		}

		sevStr := theme.StyleDimmed.Render("—")
		if sev, ok := tx.MaxSeverity(); ok {
			sevStr = lipgloss.NewStyle().Foreground(theme.SeverityColor(string(sev))).Render(string(sev))
		}

		lock := " "
		if tx.ActiveTimelock() {
			lock = lipgloss.NewStyle().Foreground(theme.ColorTimelock).Render("●")
		}

		classStr := lipgloss.NewStyle().
			Foreground(theme.ClassificationColor(string(tx.Lightning.Classification))).
			Render(fmt.Sprintf("%-12s", tx.Lightning.Classification))

		line := fmt.Sprintf("%s%s %s  %s %s  %s",
			prefix, lock, shortTxid(tx.Txid), classStr,
			theme.StyleDimmed.Render(fmt.Sprintf("%d alerts", len(tx.Alerts))), sevStr)
		lines = append(lines, line)

		if m.expanded[i] && i == m.selected {
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
