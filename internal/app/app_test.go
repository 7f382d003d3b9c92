package app

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"timelock-scope/internal/client"
	"timelock-scope/internal/feed"
)

func newTestModel() Model {
	api := client.New(client.Options{BaseURL: "http://127.0.0.1:8080"}, zerolog.Nop())
	manager := feed.NewManager(api, 10, zerolog.Nop())
	return New(api, manager, client.MonitorOptions{Interval: 10, MinSeverity: "info"})
}

func TestViewBeforeFirstResize(t *testing.T) {
	m := newTestModel()
	if v := m.View(); !strings.Contains(v, "Initializing") {
		t.Errorf("zero-size view = %q, want initializing placeholder", v)
	}
}

func TestTabCyclesThroughAllViews(t *testing.T) {
	m := newTestModel()

	for i := 0; i < int(tabCount); i++ {
		if m.active != Tab(i) {
			t.Fatalf("after %d tabs active = %d, want %d", i, m.active, i)
		}
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = next.(Model)
	}
	if m.active != TabTransaction {
		t.Errorf("tab should wrap around to the first view, got %d", m.active)
	}

	prev, _ := m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = prev.(Model)
	if m.active != TabMonitor {
		t.Errorf("shift+tab from the first view should wrap to the last, got %d", m.active)
	}
}

func TestHelpOverlayToggles(t *testing.T) {
	m := newTestModel()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyF1})
	m = next.(Model)
	if !m.showHelp {
		t.Fatal("f1 should open the help overlay")
	}
	if !strings.Contains(m.View(), "esc:close") {
		t.Error("help overlay should show the close hint")
	}

	// View-switching keys are swallowed while help is open.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.active != TabTransaction {
		t.Errorf("tab while help is open changed the view to %d", m.active)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = next.(Model)
	if m.showHelp {
		t.Error("esc should close the help overlay")
	}
}

func TestStatusBarNamesEveryTab(t *testing.T) {
	m := newTestModel()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	bar := m.statusBarView()
	for _, title := range tabTitles {
		if !strings.Contains(bar, title) {
			t.Errorf("status bar is missing tab %q", title)
		}
	}
}
