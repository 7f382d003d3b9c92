// Package app wires the five analysis views into the root Bubble Tea model.
package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"timelock-scope/internal/client"
	"timelock-scope/internal/feed"
	"timelock-scope/internal/theme"
	"timelock-scope/internal/views/block"
	"timelock-scope/internal/views/lightning"
	"timelock-scope/internal/views/monitor"
	"timelock-scope/internal/views/scan"
	"timelock-scope/internal/views/status"
	"timelock-scope/internal/views/transaction"
)

// Tab identifies the active view.
type Tab int

const (
	TabTransaction Tab = iota
	TabBlock
	TabScan
	TabLightning
	TabMonitor
	tabCount
)

var tabTitles = []string{"tx", "block", "scan", "lightning", "monitor"}

// Model is the root Bubble Tea model.
type Model struct {
	keys   KeyMap
	width  int
	height int

	active   Tab
	showHelp bool
	helpText string

	statusBar status.Model

	transaction transaction.Model
	block       block.Model
	scan        scan.Model
	lightning   lightning.Model
	monitor     monitor.Model
}

// New creates the root model.
func New(api *client.Client, manager *feed.Manager, monitorOpts client.MonitorOptions) Model {
	bar := status.New(tabTitles)
	bar.Target = api.BaseURL()

	return Model{
		keys:        DefaultKeyMap(),
		statusBar:   bar,
		transaction: transaction.New(api),
		block:       block.New(api),
		scan:        scan.New(api),
		lightning:   lightning.New(api),
		monitor:     monitor.New(manager, monitorOpts),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.setViewSizes()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Replies from in-flight commands (results, errors, stream events,
	// spinner ticks) are typed per view package; fan them out and let each
	// view pick up its own.
	return m.updateViews(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
			m.showHelp = false
		}
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.NextTab):
		m.active = (m.active + 1) % tabCount
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.active = (m.active - 1 + tabCount) % tabCount
		return m, nil

	case key.Matches(msg, m.keys.Help):
		if m.helpText == "" {
			m.helpText = renderHelp()
		}
		m.showHelp = true
		return m, nil
	}

	// All other keys go to the active view only.
	var cmd tea.Cmd
	switch m.active {
	case TabTransaction:
		m.transaction, cmd = m.transaction.Update(msg)
	case TabBlock:
		m.block, cmd = m.block.Update(msg)
	case TabScan:
		m.scan, cmd = m.scan.Update(msg)
	case TabLightning:
		m.lightning, cmd = m.lightning.Update(msg)
	case TabMonitor:
		m.monitor, cmd = m.monitor.Update(msg)
	}
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	// Disposal must release the live subscription regardless of its state.
	m.monitor.Close()
	return m, tea.Quit
}

func (m Model) updateViews(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.transaction, cmd = m.transaction.Update(msg)
	cmds = append(cmds, cmd)
	m.block, cmd = m.block.Update(msg)
	cmds = append(cmds, cmd)
	m.scan, cmd = m.scan.Update(msg)
	cmds = append(cmds, cmd)
	m.lightning, cmd = m.lightning.Update(msg)
	cmds = append(cmds, cmd)
	m.monitor, cmd = m.monitor.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) setViewSizes() {
	w, h := m.width, m.height-4
	m.transaction.Width, m.transaction.Height = w, h
	m.block.Width, m.block.Height = w, h
	m.scan.Width, m.scan.Height = w, h
	m.lightning.Width, m.lightning.Height = w, h
	m.monitor.Width, m.monitor.Height = w, h
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.statusBarView(),
			m.helpText,
			theme.StyleDimmed.Render("  esc:close"),
		)
	}

	var body string
	switch m.active {
	case TabTransaction:
		body = m.transaction.View()
	case TabBlock:
		body = m.block.View()
	case TabScan:
		body = m.scan.View()
	case TabLightning:
		body = m.lightning.View()
	case TabMonitor:
		body = m.monitor.View()
	}

	footer := theme.StyleDimmed.Render("  tab:switch view  f1:help  ctrl+c:quit")
	return lipgloss.JoinVertical(lipgloss.Left, m.statusBarView(), body, footer)
}

func (m Model) statusBarView() string {
	bar := m.statusBar
	bar.Active = int(m.active)
	bar.FeedState = string(m.monitor.FeedState())
	return bar.View()
}

const helpMarkdown = `# timelock-scope

Terminal client for the timelock analysis backend.

## Views

| Tab | What it shows |
|---|---|
| tx | Timelock and Lightning analysis of one transaction |
| block | Analyzed transactions of one block, filterable |
| scan | Alerts over a block range, filterable by severity and type |
| lightning | Lightning settlement activity and CLTV expiry distribution |
| monitor | Live mempool feed of analyzed transactions |

## Keys

- **tab / shift+tab** switch view
- **enter** submit the active form
- **space** expand the selected row
- **f1** toggle this help, **ctrl+c** quit

The monitor keeps the newest 200 events; *s* starts the feed, *S* stops
it, *c* clears the buffer, and *r* reconnects after an error.
`

func renderHelp() string {
	out, err := glamour.Render(helpMarkdown, "dark")
	if err != nil {
		return helpMarkdown
	}
	return out
}
