package cmd

import (
	"fmt"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/goal"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/reminder"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show savings goal status for a period",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := period(app.cfg)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	snap := app.goals.Snapshot(ctx, p)
	res := snap.Result
	cur := app.cfg.General.Currency

	fmt.Println()
	fmt.Println(cli.RenderTitle("POCKETSAFE  " + p.Label()))
	fmt.Println()

	if res.IsNone() {
		fmt.Println("  No savings goal set.")
		fmt.Println("  Set one with: pocketsafe goal set --income 3000 --min 200 --max 500")
		fmt.Println()
		return nil
	}

	b := res.Band
	rows := [][]string{
		{"Income", cli.FormatMoney(b.MonthlyIncome, cur)},
		{"Spending", cli.FormatMoney(res.Spending, cur)},
		{"Remainder", cli.FormatSigned(res.Remainder, cur)},
		cli.Separator,
		{"Goal band", cli.FormatMoney(b.MinGoal, cur) + " to " + cli.FormatMoney(b.MaxGoal, cur)},
		{"Status", cli.RenderStatus(res.Status)},
		{"Progress", cli.RenderProgressBar(goal.Progress(res), 20) + " " + cli.FormatPercent(goal.Progress(res))},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(snap.Categories) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Top Categories",
			Headers: []string{"Category", "Spent", "Share"},
			Rows:    categoryRows(snap.Categories, cur, 5),
		}))
	}

	upcoming, err := upcomingReminders(ctx, app, time.Now(), lookaheadDays(app.cfg.Reminders.LookaheadDays))
	if err != nil {
		warn := lipgloss.NewStyle().Foreground(cli.ColorOrange)
		fmt.Printf("\n  %s\n", warn.Render("Could not load obligations: "+err.Error()))
	} else if len(upcoming) > 0 {
		fmt.Println()
		fmt.Printf("  %d payment(s) due soon. Run `pocketsafe remind --dry-run` for details.\n", len(upcoming))
	}
	fmt.Println()
	return nil
}

func categoryRows(cats []model.CategoryTotal, currency string, limit int) [][]string {
	if limit > 0 && len(cats) > limit {
		cats = cats[:limit]
	}
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{c.Category, cli.FormatMoney(c.Total, currency), cli.FormatPercent(c.Share)})
	}
	return rows
}

// lookaheadDays treats a non-positive setting as the default window.
func lookaheadDays(n int) int {
	if n <= 0 {
		return reminder.DefaultLookaheadDays
	}
	return n
}
