// Package theme defines color themes for the pocketsafe dashboard.
package theme

import (
	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name string

	Background    lipgloss.Color
	Surface       lipgloss.Color // cards and panels
	SurfaceHover  lipgloss.Color // active tab, selected row
	SurfaceBright lipgloss.Color // focused settings field
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // overlays and forms

	TextDim      lipgloss.Color
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	Chart   lipgloss.Color // daily spending columns
	Key     lipgloss.Color // key bindings in help
	Success lipgloss.Color
	Warning lipgloss.Color // due soon, unsaved settings
	Danger  lipgloss.Color // overdue, errors

	Achieved lipgloss.Color
	Partial  lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme, warm and paper-like.
var FlexokiDark = Theme{
	Name:       "flexoki-dark",
	Background: "#100F0F", Surface: "#1C1B1A", SurfaceHover: "#282726", SurfaceBright: "#343331",
	Border: "#403E3C", BorderAccent: "#3AA99F",
	TextDim: "#575653", TextMuted: "#878580", TextPrimary: "#FFFCF0",
	Accent: "#3AA99F", AccentBright: "#5BC8BE",
	Chart: "#4385BE", Key: "#24837B",
	Success: "#A3B859", Warning: "#DA702C", Danger: "#D14D41",
	Achieved: "#879A39", Partial: "#D0A215",
}

// CatppuccinMocha is a soft pastel theme.
var CatppuccinMocha = Theme{
	Name:       "catppuccin-mocha",
	Background: "#1E1E2E", Surface: "#313244", SurfaceHover: "#45475A", SurfaceBright: "#585B70",
	Border: "#585B70", BorderAccent: "#89B4FA",
	TextDim: "#6C7086", TextMuted: "#A6ADC8", TextPrimary: "#CDD6F4",
	Accent: "#89B4FA", AccentBright: "#B4D0FB",
	Chart: "#89B4FA", Key: "#94E2D5",
	Success: "#C6F6C1", Warning: "#FAB387", Danger: "#F38BA8",
	Achieved: "#A6E3A1", Partial: "#F9E2AF",
}

// TokyoNight is a cool blue and purple theme.
var TokyoNight = Theme{
	Name:       "tokyo-night",
	Background: "#1A1B26", Surface: "#24283B", SurfaceHover: "#343A52", SurfaceBright: "#414868",
	Border: "#565F89", BorderAccent: "#7AA2F7",
	TextDim: "#565F89", TextMuted: "#A9B1D6", TextPrimary: "#C0CAF5",
	Accent: "#7AA2F7", AccentBright: "#A9C1FF",
	Chart: "#7AA2F7", Key: "#7DCFFF",
	Success: "#B9E87A", Warning: "#FF9E64", Danger: "#F7768E",
	Achieved: "#9ECE6A", Partial: "#E0AF68",
}

// Terminal uses the 16 ANSI colors only.
var Terminal = Theme{
	Name:       "terminal",
	Background: "0", Surface: "0", SurfaceHover: "8", SurfaceBright: "8",
	Border: "8", BorderAccent: "6",
	TextDim: "8", TextMuted: "7", TextPrimary: "15",
	Accent: "6", AccentBright: "14",
	Chart: "4", Key: "6",
	Success: "10", Warning: "3", Danger: "1",
	Achieved: "2", Partial: "3",
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// Next returns the theme after name, wrapping around.
func Next(name string) Theme {
	for i, t := range All {
		if t.Name == name {
			return All[(i+1)%len(All)]
		}
	}
	return All[0]
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// StatusColor maps a goal status to its color.
func (t Theme) StatusColor(s model.Status) lipgloss.Color {
	switch s {
	case model.StatusAchieved:
		return t.Achieved
	case model.StatusPartial:
		return t.Partial
	case model.StatusNotAchieved:
		return t.Danger
	default:
		return t.TextMuted
	}
}

// DueColor colors an obligation by how soon it is due: overdue is Danger,
// inside the reminder window is Warning.
func (t Theme) DueColor(days, lookahead int) lipgloss.Color {
	switch {
	case days < 0:
		return t.Danger
	case days <= lookahead:
		return t.Warning
	default:
		return t.TextPrimary
	}
}
