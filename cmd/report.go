package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagReportFormat   string
	flagReportCategory string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Spending by category for a period",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagReportFormat, "format", "f", cli.FormatTable,
		"Output format: "+strings.Join(cli.ReportFormats, ", "))
	reportCmd.Flags().StringVarP(&flagReportCategory, "category", "c", "", "Only categories containing this text (case-insensitive)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
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

	var cats []model.CategoryTotal
	if flagReportCategory != "" {
		cats, err = app.spending.CategoriesMatching(ctx, p, flagReportCategory)
	} else {
		cats, err = app.goals.Breakdown(ctx, p)
	}
	if err != nil {
		return err
	}

	table := flagReportFormat == cli.FormatTable || flagReportFormat == ""
	if table {
		fmt.Println()
		fmt.Println(cli.RenderTitle("SPENDING  " + p.Label()))
		fmt.Println()
		if len(cats) == 0 {
			fmt.Println("  No expenses recorded for this period.")
			fmt.Println()
			return nil
		}
	}

	if err := cli.WriteReport(os.Stdout, flagReportFormat, cats, app.cfg.General.Currency); err != nil {
		return err
	}
	if table {
		fmt.Println()
	}
	return nil
}
