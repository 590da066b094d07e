// Package source discovers and parses expense and obligation import files.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/cespare/xxhash/v2"
)

// ParseResult holds the output of parsing a single expense file.
type ParseResult struct {
	Expenses    []model.Expense
	ParseErrors int
	Err         error
}

// ParseFunc parses one expense file.
type ParseFunc func(path string) ParseResult

var parsers = map[Format]ParseFunc{
	FormatJSONL: ParseExpensesJSONL,
	FormatXLSX:  ParseExpensesXLSX,
}

// ParseFile parses a discovered file with the parser registered for its format.
// Rows without an ID get one derived from the file name and row content, so
// importing the same file twice does not duplicate expenses.
func ParseFile(df DiscoveredFile) ParseResult {
	p, ok := parsers[df.Format]
	if !ok {
		return ParseResult{Err: fmt.Errorf("%s: no expense parser for format %q", df.Path, df.Format)}
	}
	res := p(df.Path)
	AssignIDs(filepath.Base(df.Path), res.Expenses)
	return res
}

// AssignIDs fills missing expense IDs with a hash of origin and row content.
// Identical rows within one origin are told apart by their occurrence count.
func AssignIDs(origin string, expenses []model.Expense) {
	seen := make(map[uint64]int)
	for i := range expenses {
		e := &expenses[i]
		if e.ID != "" {
			continue
		}
		h := xxhash.New()
		_, _ = h.WriteString(origin)
		_, _ = h.WriteString("|" + e.SpentAt.UTC().Format(time.RFC3339))
		_, _ = h.WriteString("|" + e.Amount.String())
		_, _ = h.WriteString("|" + e.Category)
		_, _ = h.WriteString("|" + e.Note)
		sum := h.Sum64()
		e.ID = fmt.Sprintf("imp-%016x-%d", sum, seen[sum])
		seen[sum]++
	}
}

// ParseExpensesJSONL reads one JSON expense per line. Blank lines are
// ignored. Malformed lines and lines with a bad amount or date are counted in
// ParseErrors and skipped.
func ParseExpensesJSONL(path string) ParseResult {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var res ParseResult

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw RawExpense
		if err := json.Unmarshal(line, &raw); err != nil {
			res.ParseErrors++
			continue
		}
		e, err := raw.toExpense()
		if err != nil {
			res.ParseErrors++
			continue
		}
		res.Expenses = append(res.Expenses, e)
	}
	if err := scanner.Err(); err != nil {
		res.Err = err
	}
	return res
}

func (r RawExpense) toExpense() (model.Expense, error) {
	if r.Amount.IsNegative() {
		return model.Expense{}, fmt.Errorf("%w: %s is negative", model.ErrInvalidAmount, r.Amount)
	}
	when := r.SpentAt
	if when == "" {
		when = r.Date
	}
	spent, err := ParseDate(when)
	if err != nil {
		return model.Expense{}, err
	}
	return model.Expense{
		ID:       r.ID,
		Amount:   r.Amount,
		Category: strings.TrimSpace(r.Category),
		Note:     strings.TrimSpace(r.Note),
		SpentAt:  spent,
	}, nil
}

// ParseDate accepts RFC3339 timestamps and plain dates (2006-01-02, interpreted as UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC3339)", s)
	}
	return t, nil
}
