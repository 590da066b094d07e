// Package tui provides the interactive Bubble Tea dashboard for pocketsafe.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/config"
	"github.com/pocketsafe/pocketsafe/internal/goal"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/pipeline"
	"github.com/pocketsafe/pocketsafe/internal/reminder"
	"github.com/pocketsafe/pocketsafe/internal/tui/components"
	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Backend is everything the dashboard reads and changes.
type Backend interface {
	Snapshot(ctx context.Context, period model.Period) goal.Snapshot
	DailySpending(ctx context.Context, period model.Period) ([]pipeline.DailySpend, error)
	Band(ctx context.Context) (*model.GoalBand, error)
	SetBand(ctx context.Context, band model.GoalBand) error
	ListObligations(ctx context.Context, kind model.Kind) ([]model.Obligation, error)
	MarkSettled(ctx context.Context, id string, settled bool) error
	Advance(ctx context.Context, id string) (model.Obligation, error)
}

// Options configures a new App.
type Options struct {
	Backend       Backend
	Config        config.Config
	Period        model.Period
	NeedSetup     bool
	Now           func() time.Time
	RefreshPeriod time.Duration

	// SaveConfig persists settings changes. Nil disables saving.
	SaveConfig func(config.Config) error
}

// dataLoadedMsg is sent when a backend load finishes.
type dataLoadedMsg struct {
	snap        goal.Snapshot
	daily       []pipeline.DailySpend
	obligations []model.Obligation
	err         error
	took        time.Duration
}

// actionDoneMsg reports the outcome of an obligation or goal change.
type actionDoneMsg struct {
	text string
	err  error
}

type tickMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	backend    Backend
	cfg        config.Config
	saveConfig func(config.Config) error
	now        func() time.Time

	// Data
	snap        goal.Snapshot
	daily       []pipeline.DailySpend
	obligations []model.Obligation
	loaded      bool
	loadErr     error
	loadTime    time.Duration
	lastRefresh time.Time
	refreshing  bool
	refreshEach time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	period    model.Period
	cursor    int
	flash     string
	flashErr  bool
	settings  settingsState

	// Goal band editor
	goalForm *huh.Form
	goalVals *goalValues

	// First-run setup
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5

	defaultRefresh = time.Minute
	loadTimeout    = 10 * time.Second
)

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabObligations
	tabReminders
	tabSettings
)

var periodCycle = []model.Period{model.PeriodCurrentMonth, model.PeriodLastMonth, model.PeriodYear}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	period := opts.Period
	if period == "" {
		period = model.PeriodCurrentMonth
	}
	refresh := opts.RefreshPeriod
	if refresh <= 0 {
		refresh = defaultRefresh
	}

	return App{
		backend:     opts.Backend,
		cfg:         opts.Config,
		saveConfig:  opts.SaveConfig,
		now:         now,
		period:      period,
		needSetup:   opts.NeedSetup,
		refreshEach: refresh,
		spinner:     sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.backend, a.period),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a App) lookahead() int {
	if a.cfg.Reminders.LookaheadDays <= 0 {
		return reminder.DefaultLookaheadDays
	}
	return a.cfg.Reminders.LookaheadDays
}

func (a App) currency() string {
	return a.cfg.General.Currency
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.goalForm != nil {
			a.goalForm = a.goalForm.WithWidth(min(msg.Width, 60))
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.goalForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabObligations {
				a.moveCursor(-1)
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabObligations {
				a.moveCursor(1)
			}
		case tea.MouseButtonLeft:
			if msg.Y <= 1 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if a.goalForm != nil {
			return a.updateGoalForm(msg)
		}
		if a.activeTab == tabSettings && a.settings.editing {
			return a.updateSettingsInput(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if a.activeTab == tabObligations {
			if m, cmd, ok := a.updateObligationsKeys(key); ok {
				return m, cmd
			}
		}
		if a.activeTab == tabSettings {
			if m, cmd, ok := a.updateSettingsKeys(key); ok {
				return m, cmd
			}
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "r":
			return a.refresh()
		case "p":
			a.period = nextPeriod(a.period)
			return a.refresh()
		case "g":
			return a.openGoalForm()
		case "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		default:
			if len(key) == 1 {
				if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
					a.activeTab = idx
				}
			}
		}
		return a, nil

	case dataLoadedMsg:
		first := !a.loaded
		a.loaded = true
		a.refreshing = false
		a.loadTime = msg.took
		a.lastRefresh = a.now()
		a.loadErr = msg.err
		if msg.err == nil {
			a.snap = msg.snap
			a.daily = msg.daily
			a.obligations = msg.obligations
			a.clampCursor()
		}
		if first && a.needSetup {
			return a.openSetupForm()
		}
		return a, nil

	case actionDoneMsg:
		a.flash = msg.text
		a.flashErr = msg.err != nil
		if msg.err != nil {
			a.flash = msg.err.Error()
			return a, nil
		}
		return a.refresh()

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && !a.refreshing && a.now().Sub(a.lastRefresh) >= a.refreshEach {
			a.refreshing = true
			cmds = append(cmds, loadDataCmd(a.backend, a.period))
		}
		return a, tea.Batch(cmds...)
	}

	// Forward cursor blinks and other internal messages to an open form.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.goalForm != nil {
		return a.updateGoalForm(msg)
	}
	return a, nil
}

func (a App) refresh() (tea.Model, tea.Cmd) {
	if a.refreshing {
		return a, nil
	}
	a.refreshing = true
	return a, loadDataCmd(a.backend, a.period)
}

func nextPeriod(p model.Period) model.Period {
	for i, c := range periodCycle {
		if c == p {
			return periodCycle[(i+1)%len(periodCycle)]
		}
	}
	return periodCycle[0]
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.goalForm != nil {
		return a.viewGoalForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  pocketsafe needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ pocketsafe"))
	b.WriteString(subtitleStyle.Render(" · Savings goals & reminders"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Loading ledger..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

type binding struct{ key, desc string }

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Key).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		name  string
		binds []binding
	}{
		{"Navigation", []binding{
			{"o b m x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move in obligations list"},
		}},
		{"Obligations", []binding{
			{"s", "Settle / unsettle"},
			{"a", "Advance to next due date"},
		}},
		{"Actions", []binding{
			{"g", "Edit goal band"},
			{"p", "Cycle period"},
			{"t", "Cycle theme (settings)"},
			{"r", "Refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.name))
		b.WriteString("\n")
		for _, bind := range sec.binds {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	flashStyle := pillStyle
	if a.flashErr {
		flashStyle = lipgloss.NewStyle().Foreground(t.Danger).Background(t.Surface)
	}

	pill := pillStyle.Render(" ") + accentStyle.Render(a.period.Label())
	if a.flash != "" {
		pill += pillStyle.Render(" │ ") + flashStyle.Render(a.flash)
	}
	pill += pillStyle.Render(" ")

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(pill)

	info := fmt.Sprintf("loaded in %.1fs", a.loadTime.Seconds())
	if a.loadErr != nil {
		info = "load failed: " + a.loadErr.Error()
	}
	statusBar := components.RenderStatusBar(w, info, a.refreshing)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabObligations:
		content = a.renderObligationsTab(cw, contentH)
	case tabReminders:
		content = a.renderRemindersTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd reads the snapshot, daily series and every obligation.
func loadDataCmd(b Backend, period model.Period) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		msg := dataLoadedMsg{snap: b.Snapshot(ctx, period)}

		daily, err := b.DailySpending(ctx, period)
		if err != nil {
			msg.err = fmt.Errorf("daily spending: %w", err)
			msg.took = time.Since(start)
			return msg
		}
		msg.daily = daily

		for _, kind := range model.Kinds {
			items, err := b.ListObligations(ctx, kind)
			if err != nil {
				msg.err = fmt.Errorf("list %ss: %w", kind, err)
				msg.took = time.Since(start)
				return msg
			}
			msg.obligations = append(msg.obligations, items...)
		}
		sortByDue(msg.obligations)

		msg.took = time.Since(start)
		return msg
	}
}

func sortByDue(items []model.Obligation) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].DueAt.Equal(items[j].DueAt) {
			return items[i].DueAt.Before(items[j].DueAt)
		}
		return items[i].Name < items[j].Name
	})
}

// chartDateLabels builds compact X-axis labels for an oldest-first series.
// Month starts show the month abbreviation, other days their number.
func chartDateLabels(days []pipeline.DailySpend) []string {
	labels := make([]string, len(days))
	prevMonth := time.Month(0)
	for i, d := range days {
		m := d.Date.Month()
		switch {
		case i == 0 || m != prevMonth:
			labels[i] = d.Date.Format("Jan")
		default:
			labels[i] = strconv.Itoa(d.Date.Day())
		}
		prevMonth = m
	}
	return labels
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}
