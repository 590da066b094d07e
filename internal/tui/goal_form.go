package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// goalValues backs the goal band form fields.
type goalValues struct {
	min    string
	max    string
	income string
}

func validateAmount(s string) error {
	d, err := model.ParseAmount(s)
	if err != nil {
		return err
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

// newGoalForm builds the band editor. Max is checked against the min the user
// already entered so an inverted band never reaches the store.
func newGoalForm(vals *goalValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Monthly income").
				Description("Declared income for the period.").
				Value(&vals.income).
				Validate(validateAmount),
			huh.NewInput().
				Title("Minimum savings goal").
				Value(&vals.min).
				Validate(validateAmount),
			huh.NewInput().
				Title("Maximum savings goal").
				Value(&vals.max).
				Validate(func(s string) error {
					_, err := model.ParseGoalBand(vals.min, s, "0")
					return err
				}),
		),
	).WithShowHelp(false)
}

func (a App) openGoalForm() (tea.Model, tea.Cmd) {
	a.goalVals = &goalValues{}
	if res := a.snap.Result; !res.IsNone() {
		a.goalVals.min = res.Band.MinGoal.StringFixed(2)
		a.goalVals.max = res.Band.MaxGoal.StringFixed(2)
		a.goalVals.income = res.Band.MonthlyIncome.StringFixed(2)
	}
	a.goalForm = newGoalForm(a.goalVals).WithWidth(min(max(a.width-8, 30), 60))
	return a, a.goalForm.Init()
}

func (a App) updateGoalForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.goalForm = nil
		return a, nil
	}

	form, cmd := a.goalForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.goalForm = f
	}

	switch a.goalForm.State {
	case huh.StateCompleted:
		a.goalForm = nil
		band, err := model.ParseGoalBand(a.goalVals.min, a.goalVals.max, a.goalVals.income)
		if err != nil {
			a.flash, a.flashErr = err.Error(), true
			return a, nil
		}
		return a, saveGoalCmd(a.backend, band, a.currency())
	case huh.StateAborted:
		a.goalForm = nil
		return a, nil
	}
	return a, cmd
}

func saveGoalCmd(b Backend, band model.GoalBand, currency string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		if err := b.SetBand(ctx, band); err != nil {
			return actionDoneMsg{err: fmt.Errorf("save goal band: %w", err)}
		}
		return actionDoneMsg{text: fmt.Sprintf("Goal band %s to %s saved",
			cli.FormatMoney(band.MinGoal, currency), cli.FormatMoney(band.MaxGoal, currency))}
	}
}

func (a App) viewGoalForm() string {
	t := theme.Active
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	body := titleStyle.Render("◈ Savings Goal") + "\n\n" +
		a.goalForm.View() + "\n" +
		dimStyle.Render("enter next · esc cancel")
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}
