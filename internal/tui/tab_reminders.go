package tui

import (
	"fmt"
	"strings"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/reminder"
	"github.com/pocketsafe/pocketsafe/internal/tui/components"
	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// pendingReminders returns what the next scan would emit for each kind.
func (a App) pendingReminders() map[model.Kind][]model.ReminderEvent {
	byKind := make(map[model.Kind][]model.Obligation, len(model.Kinds))
	for _, o := range a.obligations {
		byKind[o.Kind] = append(byKind[o.Kind], o)
	}
	out := make(map[model.Kind][]model.ReminderEvent, len(model.Kinds))
	now := a.now()
	for _, kind := range model.Kinds {
		out[kind] = reminder.Due(byKind[kind], kind, now, a.lookahead())
	}
	return out
}

func (a App) renderRemindersTab(cw int) string {
	t := theme.Active
	pending := a.pendingReminders()

	titleStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	bodyStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	idStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	halves := components.LayoutRow(cw, len(model.Kinds))
	cards := make([]string, len(model.Kinds))
	for i, kind := range model.Kinds {
		inner := components.CardInnerWidth(halves[i])
		events := pending[kind]

		var b strings.Builder
		if len(events) == 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("Nothing due in the next %d days.", a.lookahead())))
		}
		for j, ev := range events {
			if j > 0 {
				b.WriteString("\n\n")
			}
			n := reminder.Compose(ev)
			color := t.DueColor(ev.DaysRemaining, a.lookahead())
			when := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true).
				Render(cli.FormatDue(ev.DaysRemaining))
			b.WriteString(titleStyle.Render(truncStr(n.Title, inner-16)) + bodyStyle.Render("  ") + when)
			b.WriteString("\n")
			b.WriteString(bodyStyle.Render(truncStr(n.Body, inner)))
			b.WriteString("\n")
			b.WriteString(idStyle.Render(fmt.Sprintf("id %d", n.StableID)))
		}

		title := fmt.Sprintf("%s reminders (%d)", kindTitle(kind), len(events))
		cards[i] = components.ContentCard(title, b.String(), halves[i])
	}

	footer := dimStyle.Render(fmt.Sprintf(
		" Window: today through %d days ahead. Settled and paused items are skipped.", a.lookahead()))
	return components.CardRow(cards) + "\n" + footer
}

func kindTitle(k model.Kind) string {
	switch k {
	case model.KindBill:
		return "Bill"
	default:
		return "Subscription"
	}
}
