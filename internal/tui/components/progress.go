package components

import (
	"fmt"

	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// LabeledBar renders a fixed-width label, a bubbles progress bar and the
// fraction as a percentage. pct is clamped to [0, 1].
func LabeledBar(label string, pct float64, color lipgloss.Color, labelW, barWidth int) string {
	t := theme.Active
	pct = min(max(pct, 0), 1)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(barWidth, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	on := lipgloss.NewStyle().Background(t.Surface)
	name := on.Foreground(t.TextMuted).Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW)))
	value := on.Foreground(color).Bold(true).Render(fmt.Sprintf("%3.0f%%", pct*100))
	return lipgloss.JoinHorizontal(lipgloss.Top, name, on.Render(" "), bar.ViewAs(pct), on.Render(" "), value)
}

// truncate cuts s to limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	switch r := []rune(s); {
	case limit <= 0:
		return ""
	case len(r) <= limit:
		return s
	default:
		return string(r[:limit-1]) + "…"
	}
}
