package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/source"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Report output formats.
const (
	FormatTable    = "table"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// ReportFormats lists the accepted --format values.
var ReportFormats = []string{FormatTable, FormatCSV, FormatMarkdown, FormatHTML}

// WriteReport writes a category spending report. Table output uses currency
// symbols; the machine formats carry plain two-decimal amounts.
func WriteReport(w io.Writer, format string, rows []model.CategoryTotal, currency string) error {
	format = strings.ToLower(strings.TrimSpace(format))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Category", "Count", "Total", "Share"})

	plain := format != FormatTable && format != ""
	money := func(c model.CategoryTotal) string {
		if plain {
			return c.Total.StringFixed(2)
		}
		return FormatMoney(c.Total, currency)
	}

	var count int
	for _, c := range rows {
		t.AppendRow(table.Row{c.Category, c.Count, money(c), FormatPercent(c.Share)})
		count += c.Count
	}
	total := model.CategoryTotal{Total: sumTotals(rows)}
	t.AppendFooter(table.Row{"Total", count, money(total), ""})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault

	switch format {
	case FormatTable, "":
		t.Render()
	case FormatCSV:
		t.RenderCSV()
	case FormatMarkdown:
		t.RenderMarkdown()
	case FormatHTML:
		t.RenderHTML()
	default:
		return fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(ReportFormats, ", "))
	}
	return nil
}

func sumTotals(rows []model.CategoryTotal) decimal.Decimal {
	total := decimal.Zero
	for _, c := range rows {
		total = total.Add(c.Total)
	}
	return total
}

// WriteExpensesXLSX writes expenses to a single-sheet workbook using the same
// column headers the importer looks for, so an export can be re-imported.
func WriteExpensesXLSX(w io.Writer, expenses []model.Expense) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	header := []any{source.ColID, source.ColDate, source.ColCategory, source.ColAmount, source.ColNote}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{e.ID, FormatDate(e.SpentAt), e.Category, e.Amount.StringFixed(2), e.Note}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
