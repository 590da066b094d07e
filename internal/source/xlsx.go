package source

import (
	"fmt"
	"strings"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/xuri/excelize/v2"
)

// Expense spreadsheet column headers. Matching is case-insensitive.
const (
	ColID       = "ID"
	ColDate     = "Date"
	ColCategory = "Category"
	ColAmount   = "Amount"
	ColNote     = "Note"
)

// ParseExpensesXLSX reads expenses from the first sheet of a spreadsheet.
// The header row is located by the Date and Amount columns; Category and
// Note are optional, as is an ID column written by the exporter. Bank exports list outgoing payments as negative amounts,
// so the absolute value is stored. Rows that cannot be parsed are counted in
// ParseErrors and skipped.
func ParseExpensesXLSX(path string) ParseResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ParseResult{Err: fmt.Errorf("opening file: %w", err)}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ParseResult{Err: fmt.Errorf("no sheets found in %s", path)}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ParseResult{Err: fmt.Errorf("reading sheet: %w", err)}
	}

	idCol, dateCol, amountCol, categoryCol, noteCol := -1, -1, -1, -1, -1
	dataStartRow := -1

	for i, row := range rows {
		for j, cell := range row {
			switch {
			case strings.EqualFold(strings.TrimSpace(cell), ColID):
				idCol = j
			case strings.EqualFold(strings.TrimSpace(cell), ColDate):
				dateCol = j
			case strings.EqualFold(strings.TrimSpace(cell), ColAmount):
				amountCol = j
			case strings.EqualFold(strings.TrimSpace(cell), ColCategory):
				categoryCol = j
			case strings.EqualFold(strings.TrimSpace(cell), ColNote):
				noteCol = j
			}
		}
		if dateCol >= 0 && amountCol >= 0 {
			dataStartRow = i + 1
			break
		}
		idCol, dateCol, amountCol, categoryCol, noteCol = -1, -1, -1, -1, -1
	}

	if dataStartRow < 0 {
		return ParseResult{Err: fmt.Errorf("%s: could not find required columns (%s, %s)", path, ColDate, ColAmount)}
	}

	var res ParseResult
	for i := dataStartRow; i < len(rows); i++ {
		row := rows[i]

		dateStr := cellAt(row, dateCol)
		amountStr := cellAt(row, amountCol)
		if dateStr == "" && amountStr == "" {
			continue
		}

		spent, err := ParseDate(dateStr)
		if err != nil {
			res.ParseErrors++
			continue
		}
		amount, err := model.ParseAmount(amountStr)
		if err != nil {
			res.ParseErrors++
			continue
		}

		res.Expenses = append(res.Expenses, model.Expense{
			ID:       cellAt(row, idCol),
			Amount:   amount.Abs(),
			Category: cellAt(row, categoryCol),
			Note:     cellAt(row, noteCol),
			SpentAt:  spent,
		})
	}
	return res
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
