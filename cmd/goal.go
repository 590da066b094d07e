package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagGoalMin    string
	flagGoalMax    string
	flagGoalIncome string
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Show or change the savings goal band",
	RunE:  runGoalShow,
}

var goalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the savings goal band",
	RunE:  runGoalShow,
}

var goalSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the savings goal band and monthly income",
	Long: `Set the savings goal band. The band is the range of money you want left over
after spending: at least --min and ideally --max out of --income.
Flags that are omitted keep their current value.`,
	RunE: runGoalSet,
}

var goalClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the savings goal band",
	RunE:  runGoalClear,
}

func init() {
	goalSetCmd.Flags().StringVar(&flagGoalMin, "min", "", "Minimum amount to save")
	goalSetCmd.Flags().StringVar(&flagGoalMax, "max", "", "Maximum (ideal) amount to save")
	goalSetCmd.Flags().StringVar(&flagGoalIncome, "income", "", "Monthly income")

	goalCmd.AddCommand(goalShowCmd, goalSetCmd, goalClearCmd)
	rootCmd.AddCommand(goalCmd)
}

func runGoalShow(_ *cobra.Command, _ []string) error {
	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	band, err := app.goals.Band(ctx)
	if err != nil {
		return err
	}
	if band == nil {
		fmt.Println()
		fmt.Println("  No savings goal set.")
		fmt.Println("  Set one with: pocketsafe goal set --income 3000 --min 200 --max 500")
		fmt.Println()
		return nil
	}

	cur := app.cfg.General.Currency
	rows := [][]string{
		{"Monthly income", cli.FormatMoney(band.MonthlyIncome, cur)},
		{"Min goal", cli.FormatMoney(band.MinGoal, cur)},
		{"Max goal", cli.FormatMoney(band.MaxGoal, cur)},
	}
	if at, err := app.store.GoalUpdatedAt(ctx); err == nil && !at.IsZero() {
		rows = append(rows, []string{"Updated", at.Local().Format(time.DateTime)})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Savings Goal",
		Headers: []string{"Setting", "Value"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runGoalSet(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("min") && !cmd.Flags().Changed("max") && !cmd.Flags().Changed("income") {
		return errors.New("nothing to set: pass at least one of --min, --max or --income")
	}

	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	current, err := app.goals.Band(ctx)
	if err != nil {
		return err
	}
	minGoal, maxGoal, income := "0", "0", "0"
	if current != nil {
		minGoal = current.MinGoal.String()
		maxGoal = current.MaxGoal.String()
		income = current.MonthlyIncome.String()
	}
	if flagGoalMin != "" {
		minGoal = flagGoalMin
	}
	if flagGoalMax != "" {
		maxGoal = flagGoalMax
	}
	if flagGoalIncome != "" {
		income = flagGoalIncome
	}

	band, err := model.ParseGoalBand(minGoal, maxGoal, income)
	if err != nil {
		return err
	}
	if err := app.goals.SetBand(ctx, band); err != nil {
		return err
	}

	cur := app.cfg.General.Currency
	fmt.Printf("  Goal band %s to %s of %s income saved\n",
		cli.FormatMoney(band.MinGoal, cur), cli.FormatMoney(band.MaxGoal, cur), cli.FormatMoney(band.MonthlyIncome, cur))
	return nil
}

func runGoalClear(_ *cobra.Command, _ []string) error {
	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	if err := app.store.ClearGoalBand(ctx); err != nil {
		return err
	}
	fmt.Println("  Savings goal cleared")
	return nil
}
