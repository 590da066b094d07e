package components

import (
	"strings"

	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom bar: key hints on the left and an
// info string (data age, errors) on the right.
func RenderStatusBar(width int, info string, refreshing bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	left := " [?]help  [g]oal  [p]eriod  [r]efresh  [q]uit"
	right := info
	if refreshing {
		right = "refreshing… " + right
	}
	if right != "" {
		right += " "
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return style.Width(width).Render(left + lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", gap)) + right)
}
