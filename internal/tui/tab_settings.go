package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pocketsafe/pocketsafe/internal/config"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/tui/components"
	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldCurrency = iota
	settingsFieldLookahead
	settingsFieldPeriod
	settingsFieldTheme
	settingsFieldWebhook
	settingsFieldCount // sentinel
)

var errNoConfigSaver = errors.New("settings are read-only in this session")

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

// updateSettingsKeys handles navigation on the settings tab. ok is false when
// the key is not a settings binding.
func (a App) updateSettingsKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
		return a, nil, true
	case "t":
		cfg := a.cfg
		cfg.Appearance.Theme = theme.Next(cfg.Appearance.Theme).Name
		a.applySettings(cfg)
		return a, nil, true
	case "enter":
		if a.settings.cursor == settingsFieldTheme {
			cfg := a.cfg
			cfg.Appearance.Theme = theme.Next(cfg.Appearance.Theme).Name
			a.applySettings(cfg)
			return a, nil, true
		}
		m, cmd := a.settingsStartEdit()
		return m, cmd, true
	}
	return a, nil, false
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldCurrency:
		ti.Placeholder = "USD, EUR, GBP..."
		ti.SetValue(a.cfg.General.Currency)
	case settingsFieldLookahead:
		ti.Placeholder = "3 (days before a due date)"
		ti.SetValue(strconv.Itoa(a.cfg.Reminders.LookaheadDays))
	case settingsFieldPeriod:
		ti.Placeholder = "month, last-month or year"
		ti.SetValue(a.cfg.General.DefaultPeriod)
	case settingsFieldWebhook:
		ti.Placeholder = "https://example.com/hook (empty to disable)"
		ti.SetValue(a.cfg.Notify.Webhook.URL)
	}

	ti.Focus()
	a.settings.input = ti
	return a, textinput.Blink
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settings.editing = false
		cfg, err := a.settingsValue(strings.TrimSpace(a.settings.input.Value()))
		if err != nil {
			a.settings.saveErr = err
			return a, nil
		}
		a.applySettings(cfg)
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsValue returns a copy of the config with the edited field applied.
func (a App) settingsValue(val string) (config.Config, error) {
	cfg := a.cfg
	switch a.settings.cursor {
	case settingsFieldCurrency:
		if val == "" {
			return cfg, errors.New("currency is required")
		}
		cfg.General.Currency = strings.ToUpper(val)
	case settingsFieldLookahead:
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("lookahead must be at least 1 day, got %q", val)
		}
		cfg.Reminders.LookaheadDays = n
	case settingsFieldPeriod:
		p, err := model.ParsePeriod(val)
		if err != nil {
			return cfg, err
		}
		cfg.General.DefaultPeriod = string(p)
	case settingsFieldWebhook:
		cfg.Notify.Webhook.URL = val
	}
	return cfg, nil
}

func (a *App) applySettings(cfg config.Config) {
	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	if a.saveConfig == nil {
		a.settings.saved = false
		a.settings.saveErr = errNoConfigSaver
		return
	}
	a.settings.saveErr = a.saveConfig(cfg)
	a.settings.saved = a.settings.saveErr == nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.Success).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	webhook := cfg.Notify.Webhook.URL
	if webhook == "" {
		webhook = "(not set)"
	}
	fields := []struct{ label, value string }{
		{"Currency", cfg.General.Currency},
		{"Reminder lookahead", fmt.Sprintf("%d days", cfg.Reminders.LookaheadDays)},
		{"Default period", cfg.General.DefaultPeriod},
		{"Theme", cfg.Appearance.Theme},
		{"Webhook URL", webhook},
	}

	innerW := components.CardInnerWidth(cw)
	var form strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-20s ", f.label)))
			form.WriteString(a.settings.input.View())
			form.WriteString("\n")
			continue
		}
		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-20s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			form.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(value); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			form.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-20s ", f.label+":")))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}

	switch {
	case a.settings.saveErr != nil:
		warnStyle := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface)
		form.WriteString("\n")
		form.WriteString(warnStyle.Render("Not saved: " + a.settings.saveErr.Error()))
	case a.settings.saved:
		form.WriteString("\n")
		form.WriteString(greenStyle.Render("Saved!"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [t] next theme  [Esc] cancel"))

	telegram := "off"
	if cfg.Notify.Telegram.Token != "" {
		telegram = fmt.Sprintf("chat %d", cfg.Notify.Telegram.ChatID)
	}
	var info strings.Builder
	info.WriteString(labelStyle.Render("Database:        ") + valueStyle.Render(cfg.DBPath()) + "\n")
	info.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(config.ConfigPath()) + "\n")
	info.WriteString(labelStyle.Render("Scan interval:   ") + valueStyle.Render(cfg.ReminderInterval().String()) + "\n")
	info.WriteString(labelStyle.Render("Log notifier:    ") + valueStyle.Render(strconv.FormatBool(cfg.Notify.Log)) + "\n")
	info.WriteString(labelStyle.Render("Telegram:        ") + valueStyle.Render(telegram) + "\n")
	info.WriteString(labelStyle.Render("Obligations:     ") + valueStyle.Render(strconv.Itoa(len(a.obligations))) + "\n")
	info.WriteString(labelStyle.Render("Load time:       ") + valueStyle.Render(fmt.Sprintf("%.1fs", a.loadTime.Seconds())))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", info.String(), cw))
	return b.String()
}
