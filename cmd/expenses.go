package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/pipeline"
	"github.com/pocketsafe/pocketsafe/internal/source"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagExpenseAmount   string
	flagExpenseCategory string
	flagExpenseNote     string
	flagExpenseDate     string
	flagExpenseLimit    int
	flagImportForce     bool
)

var expensesCmd = &cobra.Command{
	Use:     "expenses",
	Aliases: []string{"expense", "ex"},
	Short:   "Record, list, import and export expenses",
}

var expensesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record one expense",
	RunE:  runExpensesAdd,
}

var expensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses in the selected period",
	RunE:  runExpensesList,
}

var expensesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpensesDelete,
}

var expensesImportCmd = &cobra.Command{
	Use:   "import <file-or-dir>...",
	Short: "Import expenses from .jsonl or .xlsx files",
	Long: `Import expenses from JSON Lines or Excel files. Directories are scanned
recursively. Files that have not changed since the last import are skipped
unless --force is given. Rows whose ID is already stored are never duplicated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExpensesImport,
}

var expensesExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export expenses in the selected period to a workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpensesExport,
}

func init() {
	expensesAddCmd.Flags().StringVar(&flagExpenseAmount, "amount", "", "Amount spent (required)")
	expensesAddCmd.Flags().StringVarP(&flagExpenseCategory, "category", "c", "", "Category")
	expensesAddCmd.Flags().StringVarP(&flagExpenseNote, "note", "n", "", "Free-form note")
	expensesAddCmd.Flags().StringVar(&flagExpenseDate, "date", "", "Date spent, YYYY-MM-DD (default today)")
	_ = expensesAddCmd.MarkFlagRequired("amount")

	expensesListCmd.Flags().IntVarP(&flagExpenseLimit, "limit", "n", 0, "Show only the most recent N expenses")
	expensesImportCmd.Flags().BoolVar(&flagImportForce, "force", false, "Re-parse files even if unchanged")

	expensesCmd.AddCommand(expensesAddCmd, expensesListCmd, expensesDeleteCmd, expensesImportCmd, expensesExportCmd)
	rootCmd.AddCommand(expensesCmd)
}

func runExpensesAdd(_ *cobra.Command, _ []string) error {
	amount, err := model.ParseAmount(flagExpenseAmount)
	if err != nil {
		return err
	}
	e := model.Expense{
		ID:       uuid.NewString(),
		Amount:   amount,
		Category: flagExpenseCategory,
		Note:     flagExpenseNote,
	}
	if flagExpenseDate != "" {
		if e.SpentAt, err = source.ParseDate(flagExpenseDate); err != nil {
			return err
		}
	}

	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	if err := app.store.AddExpense(ctx, &e); err != nil {
		return err
	}
	fmt.Printf("  Recorded %s in %s on %s (id %s)\n",
		cli.FormatMoney(e.Amount, app.cfg.General.Currency), e.CategoryOrDefault(), cli.FormatDate(e.SpentAt), e.ID)
	return nil
}

// periodExpenses returns the expenses in the selected period, oldest first.
func periodExpenses(app *appContext) ([]model.Expense, model.Period, error) {
	p, err := period(app.cfg)
	if err != nil {
		return nil, p, err
	}
	ctx, cancel := commandContext()
	defer cancel()

	since, until := p.Bounds(time.Now().UTC())
	expenses, err := app.store.ListExpenses(ctx, since, until)
	return expenses, p, err
}

func runExpensesList(_ *cobra.Command, _ []string) error {
	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	expenses, p, err := periodExpenses(app)
	if err != nil {
		return err
	}

	fmt.Println()
	if len(expenses) == 0 {
		fmt.Printf("  No expenses recorded for %s.\n\n", strings.ToLower(p.Label()))
		return nil
	}

	total := pipeline.Sum(expenses)
	shown := expenses
	if flagExpenseLimit > 0 && len(shown) > flagExpenseLimit {
		shown = shown[len(shown)-flagExpenseLimit:]
	}

	cur := app.cfg.General.Currency
	rows := make([][]string, 0, len(shown)+2)
	for _, e := range shown {
		rows = append(rows, []string{
			cli.FormatDate(e.SpentAt),
			e.CategoryOrDefault(),
			truncate(e.Note, 32),
			cli.FormatMoney(e.Amount, cur),
			e.ID,
		})
	}
	rows = append(rows, cli.Separator)
	rows = append(rows, []string{"Total", fmt.Sprintf("%d expenses", len(expenses)), "", cli.FormatMoney(total, cur), ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Expenses  " + p.Label(),
		Headers: []string{"Date", "Category", "Note", "Amount", "ID"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runExpensesDelete(_ *cobra.Command, args []string) error {
	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	if err := app.store.DeleteExpense(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("  Deleted expense %s\n", args[0])
	return nil
}

func runExpensesImport(_ *cobra.Command, args []string) error {
	files, skipped, err := source.Discover(args)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		progressf("  Skipping %s (not .jsonl or .xlsx)\n", s)
	}
	if len(files) == 0 {
		return errors.New("no importable files found")
	}

	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	start := time.Now()
	result, err := pipeline.Import(ctx, files, app.store, flagImportForce, func(current, total int) {
		progressf("\r  Parsing [%d/%d] files", current, total)
	})
	if err != nil {
		return err
	}
	progressf("\n")

	fmt.Println()
	rows := [][]string{
		{"Files", cli.FormatNumber(int64(result.TotalFiles))},
		{"Unchanged", cli.FormatNumber(int64(result.Unchanged))},
		{"Parsed", cli.FormatNumber(int64(result.ParsedFiles))},
		{"Rows read", cli.FormatNumber(int64(len(result.Expenses)))},
		{"Inserted", cli.FormatNumber(int64(result.Inserted))},
		{"Duplicates", cli.FormatNumber(int64(len(result.Expenses) - result.Inserted))},
		{"Bad rows", cli.FormatNumber(int64(result.ParseErrors))},
		{"Took", time.Since(start).Round(time.Millisecond).String()},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Import",
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if result.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d files could not be read:\n", result.FileErrors)
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "    %v\n", e)
		}
	}
	fmt.Println()
	return nil
}

func runExpensesExport(_ *cobra.Command, args []string) error {
	path := args[0]
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("export file must end in .xlsx, got %q", path)
	}

	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	expenses, p, err := periodExpenses(app)
	if err != nil {
		return err
	}

	//nolint:gosec // export path is chosen by the local user
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := cli.WriteExpensesXLSX(f, expenses); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("  Exported %d expenses (%s) to %s\n", len(expenses), strings.ToLower(p.Label()), path)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
