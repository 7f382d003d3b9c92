// Package alerts renders a navigable alert table with expandable detail
// rows, shared by the transaction, block, scan, and monitor views.
package alerts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"timelock-scope/internal/client"
	"timelock-scope/internal/theme"
)

// Model holds the alert list state.
type Model struct {
	Width int

	alerts   []client.Alert
	selected int
	expanded map[int]bool
}

// New creates an empty alert list.
func New() Model {
	return Model{expanded: make(map[int]bool)}
}

// SetAlerts replaces the list and resets navigation state.
func (m *Model) SetAlerts(alerts []client.Alert) {
	m.alerts = alerts
	m.selected = 0
	m.expanded = make(map[int]bool)
}

// Len returns the number of alerts.
func (m Model) Len() int { return len(m.alerts) }

// MoveDown selects the next alert.
func (m *Model) MoveDown() {
	if len(m.alerts) > 0 {
		m.selected = (m.selected + 1) % len(m.alerts)
	}
}

// MoveUp selects the previous alert.
func (m *Model) MoveUp() {
	if len(m.alerts) > 0 {
		m.selected = (m.selected - 1 + len(m.alerts)) % len(m.alerts)
	}
}

// Toggle expands or collapses the selected alert's details.
func (m *Model) Toggle() {
	if len(m.alerts) > 0 {
		m.expanded[m.selected] = !m.expanded[m.selected]
	}
}

// View renders the alert table.
func (m Model) View() string {
	if len(m.alerts) == 0 {
		return theme.StyleDimmed.Render("  No alerts")
	}

	var lines []string
	for i, a := range m.alerts {
		prefix := "  "
		if i == m.selected {
			prefix = "> "
		}
		glyph := lipgloss.NewStyle().Foreground(theme.SeverityColor(string(a.Severity))).
			Render(theme.SeverityGlyph(string(a.Severity)))
		sevStr := lipgloss.NewStyle().Foreground(theme.SeverityColor(string(a.Severity))).
			Width(14).Render(string(a.Severity))

		name := string(a.DetectionType)
		if entry, ok := client.LookupDetection(a.DetectionType); ok {
			name = entry.Name
		}
		nameStr := theme.StyleHeader.Render(fmt.Sprintf("%-18s", truncate(name, 18)))

		desc := truncate(a.Description, maxDescWidth(m.Width))
		line := prefix + glyph + " " + sevStr + nameStr + " " + desc
		lines = append(lines, line)

		if m.expanded[i] {
			lines = append(lines, m.renderDetails(a)...)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderDetails(a client.Alert) []string {
	var lines []string
	pad := "      "

	if a.InputIndex != nil {
		lines = append(lines, pad+theme.StyleDimmed.Render("input")+fmt.Sprintf("  #%d", *a.InputIndex))
	}

	decoded, err := a.DecodeDetails()
	if err != nil {
		lines = append(lines, pad+theme.StyleError.Render("details: "+err.Error()))
	} else if decoded != nil {
		for _, row := range detailRows(decoded) {
			lines = append(lines, pad+row)
		}
	}

	if entry, ok := client.LookupDetection(a.DetectionType); ok && entry.Summary != "" {
		lines = append(lines, pad+theme.StyleDimmed.Render(wrap(entry.Summary, maxDescWidth(m.Width))))
	}
	if a.Reference != nil {
		ref := fmt.Sprintf("%s (%s, %d)", a.Reference.Name, a.Reference.Authors, a.Reference.Year)
		lines = append(lines, pad+theme.StyleAccent.Render(ref))
		if a.Reference.URL != "" {
			lines = append(lines, pad+theme.StyleDimmed.Render(a.Reference.URL))
		}
	}
	return lines
}

func detailRows(decoded any) []string {
	label := func(k, v string) string {
		return theme.StyleDimmed.Render(fmt.Sprintf("%-14s", k)) + v
	}
	switch d := decoded.(type) {
	case *client.MixingDetails:
		return []string{
			label("locktime", fmt.Sprintf("%d (%s)", d.Locktime, d.LocktimeKind)),
			label("seq locks", fmt.Sprintf("%d", d.SequenceLocks)),
		}
	case *client.CLTVDeltaDetails:
		return []string{
			label("cltv expiry", fmt.Sprintf("%d", d.CLTVExpiry)),
			label("current tip", fmt.Sprintf("%d", d.CurrentTip)),
			label("delta", fmt.Sprintf("%d blocks (threshold %d)", d.Delta, d.Threshold)),
		}
	case *client.ClusteringDetails:
		return []string{
			label("htlc count", fmt.Sprintf("%d", d.HTLCCount)),
			label("cluster", fmt.Sprintf("%d in window %d-%d", d.ClusterSize, d.WindowStart, d.WindowEnd)),
		}
	case *client.SequenceDetails:
		return []string{
			label("sequence", fmt.Sprintf("0x%08x", d.Sequence)),
			label("expected", d.Expected),
		}
	}
	return nil
}

func maxDescWidth(width int) int {
	w := width - 44
	if w < 20 {
		w = 20
	}
	return w
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}

func wrap(s string, width int) string {
	words := strings.Fields(s)
	var b strings.Builder
	line := 0
	for i, w := range words {
		if line+len(w)+1 > width && line > 0 {
			b.WriteByte('\n')
			line = 0
		} else if i > 0 {
			b.WriteByte(' ')
			line++
		}
		b.WriteString(w)
		line += len(w)
	}
	return b.String()
}
