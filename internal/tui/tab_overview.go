package tui

import (
	"fmt"
	"strings"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/goal"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/tui/components"
	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const maxCategoryBars = 8

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	res := a.snap.Result
	cur := a.currency()
	var b strings.Builder

	// Row 1: metric cards
	spent := res.Spending
	if res.IsNone() {
		spent = categoryTotal(a.snap.Categories)
	}
	metrics := []components.Metric{
		{Label: "Spent", Value: cli.FormatMoney(spent, cur), Delta: a.period.Label()},
	}
	if res.IsNone() {
		metrics = append(metrics,
			components.Metric{Label: "Income", Value: "-", Delta: "no goal band"},
			components.Metric{Label: "Remainder", Value: "-"},
			components.Metric{Label: "Status", Value: res.Status.Label(), Color: t.TextMuted},
		)
	} else {
		metrics = append(metrics,
			components.Metric{Label: "Income", Value: cli.FormatMoney(res.Band.MonthlyIncome, cur), Delta: "declared monthly"},
			components.Metric{Label: "Remainder", Value: cli.FormatSigned(res.Remainder, cur), Color: t.StatusColor(res.Status)},
			components.Metric{Label: "Status", Value: res.Status.Label(), Color: t.StatusColor(res.Status),
				Delta: fmt.Sprintf("band %s to %s", cli.FormatMoney(res.Band.MinGoal, cur), cli.FormatMoney(res.Band.MaxGoal, cur))},
		)
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: progress toward the goal band
	b.WriteString(components.ContentCard("Savings Goal", a.renderGoalProgress(res, cw), cw))
	b.WriteString("\n")

	// Row 3: categories and daily spending
	halves := components.LayoutRow(cw, 2)
	catCard := components.ContentCard("Spending by Category", a.renderCategories(components.CardInnerWidth(halves[0])), halves[0])
	dayCard := components.ContentCard("Daily Spending", a.renderDailyChart(components.CardInnerWidth(halves[1])), halves[1])
	b.WriteString(components.CardRow([]string{catCard, dayCard}))

	return b.String()
}

func (a App) renderGoalProgress(res model.StatusResult, cw int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if res.IsNone() {
		return mutedStyle.Render("No goal band set. Press g to set min, max and monthly income.")
	}

	inner := components.CardInnerWidth(cw)
	color := t.StatusColor(res.Status)
	bar := components.LabeledBar("Toward max", goal.Progress(res), color, 12, max(inner-20, 10))

	cur := a.currency()
	var hint string
	switch res.Status {
	case model.StatusAchieved:
		hint = "Remainder is above the max goal."
	case model.StatusPartial:
		hint = fmt.Sprintf("%s more to reach the max goal.", cli.FormatMoney(res.Band.MaxGoal.Sub(res.Remainder), cur))
	default:
		hint = fmt.Sprintf("%s short of the min goal.", cli.FormatMoney(res.Band.MinGoal.Sub(res.Remainder), cur))
	}
	return bar + "\n" + mutedStyle.Render(hint)
}

func (a App) renderCategories(width int) string {
	t := theme.Active
	cats := a.snap.Categories
	if len(cats) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No expenses in this period.")
	}
	if len(cats) > maxCategoryBars {
		cats = cats[:maxCategoryBars]
	}
	bars := make([]components.Bar, len(cats))
	for i, c := range cats {
		v, _ := c.Total.Float64()
		bars[i] = components.Bar{
			Label: c.Category,
			Value: v,
			Text:  fmt.Sprintf("%s %s", cli.FormatMoney(c.Total, a.currency()), cli.FormatPercent(c.Share)),
		}
	}
	return components.HorizontalBars(bars, t.Accent, width)
}

func (a App) renderDailyChart(width int) string {
	t := theme.Active
	if len(a.daily) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No data.")
	}
	values := make([]float64, len(a.daily))
	for i, d := range a.daily {
		values[i], _ = d.Total.Float64()
	}
	return components.ColumnChart(values, chartDateLabels(a.daily), t.Chart, width, 8)
}

func categoryTotal(cats []model.CategoryTotal) decimal.Decimal {
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(c.Total)
	}
	return total
}
