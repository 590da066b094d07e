package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pocketsafe/pocketsafe/internal/config"
	"github.com/pocketsafe/pocketsafe/internal/logger"
	"github.com/pocketsafe/pocketsafe/internal/tui"
	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The alt screen owns the terminal, so logs go to a file.
	logPath := filepath.Join(config.DataDir(), "pocketsafe-tui.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	//nolint:gosec // log path is under the user's data directory
	logf, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open tui log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	log, err := logger.New(cfg.Log.Level, "json", logf)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	app, err := newAppContext(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := period(app.cfg)
	if err != nil {
		return err
	}

	theme.SetActive(app.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	model := tui.NewApp(tui.Options{
		Backend:    tui.NewStoreBackend(app.store, app.goals, app.spending),
		Config:     app.cfg,
		Period:     p,
		NeedSetup:  flagConfig == "" && !config.Exists(),
		SaveConfig: saveConfig,
	})
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
