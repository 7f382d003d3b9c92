package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"

	"timelock-scope/internal/app"
	"timelock-scope/internal/client"
	"timelock-scope/internal/feed"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func runTUI() error {
	// The TUI owns the terminal; without a log file, logging is off.
	log := logger
	if cfg.Logging.File == "" {
		log = zerolog.Nop()
	}

	api := client.New(cfg.ClientOptions(), log)
	manager := feed.NewManager(api, cfg.Monitor.Buffer, log)
	defer manager.Close()

	m := app.New(api, manager, cfg.MonitorOptions())
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
