// Package lightning provides the Lightning activity dashboard view: summary
// counts, a CLTV expiry distribution, and the classified transaction list.
package lightning

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
)

const maxDistributionRows = 12

// Model holds the Lightning dashboard state.
type Model struct {
	Width  int
	Height int

	api   *client.Client
	start textinput.Model
	end   textinput.Model
	focus int

	spin    spinner.Model
	loading bool
	err     error
	result  *client.LightningResult
}

type resultMsg struct{ result *client.LightningResult }
type errMsg struct{ err error }

// New creates the Lightning view.
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
		api:   api,
		start: start,
		end:   end,
		spin:  spinner.New(spinner.WithSpinner(spinner.Dot)),
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

	opts := client.LightningOptions{Start: start}
	if v := strings.TrimSpace(m.end.Value()); v != "" {
		end, err := strconv.ParseInt(v, 10, 64)
		if err != nil || end < start {
			m.err = fmt.Errorf("invalid end height %q", v)
			m.result = nil
			return m, nil
		}
		opts.End = &end
	}

	m.loading = true
	m.err = nil
	m.result = nil

	api := m.api
	fetch := func() tea.Msg {
		result, err := api.Lightning(context.Background(), opts)
		if err != nil {
			return errMsg{err}
		}
		return resultMsg{result}
	}
	return m, tea.Batch(m.spin.Tick, fetch)
}

// Loading reports whether a request is in flight.
func (m Model) Loading() bool { return m.loading }

// View renders the Lightning dashboard.
func (m Model) View() string {
	sections := []string{
		theme.StyleHeader.Render("Lightning Dashboard"),
		fmt.Sprintf("  %s  %s", m.start.View(), m.end.View()),
		theme.StyleDimmed.Render("  enter:fetch  ←/→:field"),
		"",
	}

	switch {
	case m.loading:
		sections = append(sections, "  "+m.spin.View()+" scanning for Lightning activity...")
	case m.err != nil:
		sections = append(sections, "  "+theme.StyleError.Render(m.err.Error()))
	case m.result != nil:
		sections = append(sections,
			m.renderStatsRow(),
			"",
			m.renderDistribution(),
			"",
			m.renderTransactions(),
		)
	default:
		sections = append(sections, theme.StyleDimmed.Render("  Summarize Lightning settlement activity over a block range."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatsRow shows aggregate counts in a single bordered row.
func (m Model) renderStatsRow() string {
	r := m.result
	statStyle := lipgloss.NewStyle().Padding(0, 1)

	stats := []string{
		statStyle.Foreground(theme.ColorCommitment).Render(
			fmt.Sprintf("Commitments: %d", r.Commitments)),
		statStyle.Foreground(theme.ColorHTLCTimeout).Render(
			fmt.Sprintf("HTLC timeouts: %d", r.HTLCTimeouts)),
		statStyle.Foreground(theme.ColorHTLCSuccess).Render(
			fmt.Sprintf("HTLC successes: %d", r.HTLCSuccesses)),
		statStyle.Foreground(theme.ColorBright).Render(
			fmt.Sprintf("Scanned: %d", r.TotalTransactionsScanned)),
		statStyle.Foreground(theme.ColorDimmed).Render(
			fmt.Sprintf("Blocks %d–%d", r.StartHeight, r.EndHeight)),
	}

	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))
	return theme.StyleBorder.Padding(0, 1).Render(content)
}

// renderDistribution draws the CLTV expiry histogram with unicode bars.
func (m Model) renderDistribution() string {
	dist := m.result.CLTVExpiryDistribution
	if len(dist) == 0 {
		return theme.StyleDimmed.Render("  No CLTV expiries observed")
	}

	maxCount := 0
	for _, b := range dist {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	barWidth := m.Width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 60 {
		barWidth = 60
	}

	rows := dist
	if len(rows) > maxDistributionRows {
		rows = rows[:maxDistributionRows]
	}

	lines := []string{theme.StyleHeader.Render("  CLTV expiry distribution")}
	for _, b := range rows {
		filled := 0
		if maxCount > 0 {
			filled = b.Count * barWidth / maxCount
		}
		bar := lipgloss.NewStyle().Foreground(theme.ColorHTLCTimeout).
			Render(strings.Repeat("█", filled))
		lines = append(lines, fmt.Sprintf("  %8d %s %d", b.Expiry, bar, b.Count))
	}
	if len(dist) > maxDistributionRows {
		lines = append(lines, theme.StyleDimmed.Render(
			fmt.Sprintf("  … %d more buckets", len(dist)-maxDistributionRows)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderTransactions() string {
	txs := m.result.Transactions
	if len(txs) == 0 {
		return theme.StyleDimmed.Render("  No Lightning transactions in range")
	}

	lines := []string{
		theme.StyleHeader.Render(fmt.Sprintf("  Transactions (%d)", len(txs))),
		theme.StyleDimmed.Render(fmt.Sprintf("  %-18s %-9s %-13s %s", "txid", "height", "class", "cltv")),
	}
	for _, tx := range txs {
		classStr := lipgloss.NewStyle().
			Foreground(theme.ClassificationColor(string(tx.Classification))).
			Render(fmt.Sprintf("%-13s", tx.Classification))
		cltv := "—"
		if tx.CLTVExpiry != nil {
			cltv = strconv.FormatUint(uint64(*tx.CLTVExpiry), 10)
		}
		lines = append(lines, fmt.Sprintf("  %-18s %-9d %s %s",
			shortTxid(tx.Txid), tx.BlockHeight, classStr, cltv))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func shortTxid(txid string) string {
	if len(txid) > 16 {
		return txid[:8] + "…" + txid[len(txid)-8:]
	}
	return txid
}
