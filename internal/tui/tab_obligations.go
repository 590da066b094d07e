package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/schedule"
	"github.com/pocketsafe/pocketsafe/internal/tui/components"
	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// updateObligationsKeys handles list navigation and actions. ok is false when
// the key is not an obligations binding.
func (a App) updateObligationsKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.moveCursor(1)
		return a, nil, true
	case "k", "up":
		a.moveCursor(-1)
		return a, nil, true
	case "home":
		a.cursor = 0
		return a, nil, true
	case "end", "G":
		a.cursor = max(len(a.obligations)-1, 0)
		return a, nil, true
	case "s":
		o, ok := a.selected()
		if !ok {
			return a, nil, true
		}
		return a, settleCmd(a.backend, o, !o.Settled), true
	case "a":
		o, ok := a.selected()
		if !ok {
			return a, nil, true
		}
		return a, advanceCmd(a.backend, o), true
	}
	return a, nil, false
}

func (a *App) moveCursor(delta int) {
	a.cursor += delta
	a.clampCursor()
}

func (a *App) clampCursor() {
	if a.cursor >= len(a.obligations) {
		a.cursor = len(a.obligations) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a App) selected() (model.Obligation, bool) {
	if a.cursor < 0 || a.cursor >= len(a.obligations) {
		return model.Obligation{}, false
	}
	return a.obligations[a.cursor], true
}

func settleCmd(b Backend, o model.Obligation, settled bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		if err := b.MarkSettled(ctx, o.ID, settled); err != nil {
			return actionDoneMsg{err: fmt.Errorf("settle %s: %w", o.Name, err)}
		}
		verb := "Settled"
		if !settled {
			verb = "Unsettled"
		}
		return actionDoneMsg{text: verb + " " + o.Name}
	}
}

func advanceCmd(b Backend, o model.Obligation) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		next, err := b.Advance(ctx, o.ID)
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("advance %s: %w", o.Name, err)}
		}
		return actionDoneMsg{text: fmt.Sprintf("%s next due %s", o.Name, cli.FormatDate(next.DueAt))}
	}
}

// marker, kind, name (width arg), amount, due date, relative due, recurrence, state
const obligationRowFormat = "%-2s%-13s%-*s %12s  %-11s%-15s%-10s%s"

func (a App) renderObligationsTab(cw, h int) string {
	t := theme.Active
	if len(a.obligations) == 0 {
		body := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
			Render("No subscriptions or bills yet. Add one with `pocketsafe obligations add`.")
		return components.ContentCard("Obligations", body, cw)
	}

	inner := components.CardInnerWidth(cw)
	now := a.now()
	lookahead := a.lookahead()

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)

	nameW := max(inner-73, 12)
	header := fmt.Sprintf(obligationRowFormat, "", "Kind", nameW, "Name", "Amount", "Due", "When", "Repeats", "State")

	// Borders, title and header take four lines; scroll to keep the cursor visible.
	visible := max(h-4, 1)
	offset := 0
	if a.cursor >= visible {
		offset = a.cursor - visible + 1
	}
	end := min(offset+visible, len(a.obligations))

	var b strings.Builder
	b.WriteString(headStyle.Render(truncStr(header, inner)))
	for i := offset; i < end; i++ {
		o := a.obligations[i]
		days := schedule.DaysUntil(o.DueAt, now)

		marker := " "
		if i == a.cursor {
			marker = "▸"
		}
		state := obligationState(o)
		line := fmt.Sprintf(obligationRowFormat,
			marker,
			string(o.Kind),
			nameW, truncStr(o.Name, nameW),
			cli.FormatMoney(o.Amount, a.currency()),
			cli.FormatDate(o.DueAt),
			cli.FormatDue(days),
			string(o.Recurrence),
			state,
		)
		line = fmt.Sprintf("%-*s", inner, truncStr(line, inner))

		b.WriteString("\n")
		switch {
		case i == a.cursor:
			b.WriteString(selStyle.Render(line))
		case !o.Active || o.Settled:
			b.WriteString(dimStyle.Render(line))
		default:
			b.WriteString(rowStyle.Foreground(t.DueColor(days, lookahead)).Render(line))
		}
	}

	title := fmt.Sprintf("Obligations (%d)  [s]ettle  [a]dvance", len(a.obligations))
	return components.ContentCard(title, b.String(), cw)
}

func obligationState(o model.Obligation) string {
	switch {
	case !o.Active:
		return "paused"
	case o.Settled:
		return "settled"
	default:
		return "open"
	}
}
