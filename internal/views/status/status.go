// Package status renders the top status bar: view tabs, feed connection
// state, and the backend target.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"timelock-scope/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Width     int
	Titles    []string
	Active    int
	FeedState string
	Target    string
}

// New creates a status bar with the given tab titles.
func New(titles []string) Model {
	return Model{Titles: titles, FeedState: "disconnected"}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var tabs []string
	for i, title := range m.Titles {
		label := fmt.Sprintf("%d:%s", i+1, title)
		if i == m.Active {
			tabs = append(tabs, theme.StyleSelected.Render("["+label+"]"))
		} else {
			tabs = append(tabs, theme.StyleDimmed.Render(" "+label+" "))
		}
	}

	dot := lipgloss.NewStyle().Foreground(theme.ConnectionColor(m.FeedState)).Render("●")
	right := fmt.Sprintf("%s %s  %s", dot, m.FeedState, theme.StyleDimmed.Render(m.Target))

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := strings.Join(tabs, " ") + sep + right

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
