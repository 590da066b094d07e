package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pocketsafe/pocketsafe/internal/config"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// setupValues backs the first-run form.
type setupValues struct {
	currency  string
	lookahead string
	period    string
	theme     string
}

func setupValuesFrom(cfg config.Config) *setupValues {
	return &setupValues{
		currency:  cfg.General.Currency,
		lookahead: strconv.Itoa(cfg.Reminders.LookaheadDays),
		period:    cfg.General.DefaultPeriod,
		theme:     cfg.Appearance.Theme,
	}
}

func validateLookahead(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter a whole number of days, 1 or more")
	}
	return nil
}

func newSetupForm(vals *setupValues) *huh.Form {
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to pocketsafe").
				Description("Track spending against a savings goal and get reminded\nbefore subscriptions renew and bills come due."),
			huh.NewInput().
				Title("Currency").
				Description("ISO code used when formatting amounts.").
				Value(&vals.currency).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("currency is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Reminder lookahead (days)").
				Description("Remind this many days before a due date.").
				Value(&vals.lookahead).
				Validate(validateLookahead),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default period").
				Options(
					huh.NewOption(model.PeriodCurrentMonth.Label(), string(model.PeriodCurrentMonth)),
					huh.NewOption(model.PeriodLastMonth.Label(), string(model.PeriodLastMonth)),
					huh.NewOption(model.PeriodYear.Label(), string(model.PeriodYear)),
				).
				Value(&vals.period),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&vals.theme),
		),
	)
}

// applySetup copies validated form values into cfg.
func applySetup(cfg config.Config, vals *setupValues) (config.Config, error) {
	n, err := strconv.Atoi(strings.TrimSpace(vals.lookahead))
	if err != nil || n < 1 {
		return cfg, fmt.Errorf("lookahead %q is not a whole number of days", vals.lookahead)
	}
	p, err := model.ParsePeriod(vals.period)
	if err != nil {
		return cfg, err
	}
	cfg.General.Currency = strings.ToUpper(strings.TrimSpace(vals.currency))
	cfg.General.DefaultPeriod = string(p)
	cfg.Reminders.LookaheadDays = n
	cfg.Appearance.Theme = theme.ByName(vals.theme).Name
	return cfg, nil
}

// RunSetup runs the first-run form on the terminal and returns the updated
// config. It does not save.
func RunSetup(cfg config.Config) (config.Config, error) {
	vals := setupValuesFrom(cfg)
	if err := newSetupForm(vals).Run(); err != nil {
		return cfg, err
	}
	return applySetup(cfg, vals)
}

func (a App) openSetupForm() (tea.Model, tea.Cmd) {
	a.setupVals = setupValuesFrom(a.cfg)
	a.setupForm = newSetupForm(a.setupVals)
	if a.width > 0 {
		a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
	}
	return a, a.setupForm.Init()
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupForm = nil
		a.needSetup = false
		cfg, err := applySetup(a.cfg, a.setupVals)
		if err != nil {
			a.flash, a.flashErr = err.Error(), true
			return a, nil
		}
		a.applySettings(cfg)
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		a.needSetup = false
		return a, nil
	}
	return a, cmd
}
