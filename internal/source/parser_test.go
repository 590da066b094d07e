package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// writeFile creates a temp file with the given name and content.
func writeFile(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseExpensesJSONL(t *testing.T) {
	path := writeFile(t, "expenses.jsonl",
		`{"id":"e1","amount":"12.50","category":"Food","spent_at":"2025-06-01T10:00:00Z"}`,
		``,
		`{"amount":3,"date":"2025-06-02","note":" bus "}`,
		`not json`,
		`{"amount":"5","date":"yesterday"}`,
		`{"amount":"-5","date":"2025-06-02"}`,
	)

	res := ParseExpensesJSONL(path)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Expenses) != 2 {
		t.Fatalf("got %d expenses, want 2", len(res.Expenses))
	}
	if res.ParseErrors != 3 {
		t.Errorf("ParseErrors = %d, want 3", res.ParseErrors)
	}

	first := res.Expenses[0]
	if first.ID != "e1" || !first.Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("first = %+v", first)
	}
	second := res.Expenses[1]
	if !second.SpentAt.Equal(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("SpentAt = %s", second.SpentAt)
	}
	if second.Note != "bus" {
		t.Errorf("Note = %q, want bus", second.Note)
	}
}

func TestParseExpensesJSONL_MissingFile(t *testing.T) {
	res := ParseExpensesJSONL(filepath.Join(t.TempDir(), "nope.jsonl"))
	if res.Err == nil {
		t.Fatal("expected error for missing file")
	}
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "bank.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseExpensesXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Account export"},
		{},
		{"Note", "Date", "Amount", "Category"},
		{"Groceries", "2025-06-01", "-45,20", "Food"},
		{"Train", "2025-06-03", "12", ""},
		{"Broken", "someday", "3", "Misc"},
		{"", "", "", ""},
	})

	res := ParseExpensesXLSX(path)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Expenses) != 2 {
		t.Fatalf("got %d expenses, want 2", len(res.Expenses))
	}
	if res.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", res.ParseErrors)
	}
	if got := res.Expenses[0]; !got.Amount.Equal(decimal.RequireFromString("45.2")) || got.Category != "Food" || got.Note != "Groceries" {
		t.Errorf("first = %+v", got)
	}
	if got := res.Expenses[1]; got.CategoryOrDefault() != model.UncategorizedLabel {
		t.Errorf("second category = %q", got.Category)
	}
}

func TestParseExpensesXLSX_NoHeader(t *testing.T) {
	path := writeWorkbook(t, [][]any{{"Foo", "Bar"}, {"1", "2"}})
	if res := ParseExpensesXLSX(path); res.Err == nil {
		t.Fatal("expected missing column error")
	}
}

func TestParseFile_Dispatch(t *testing.T) {
	path := writeFile(t, "a.jsonl", `{"amount":"1","date":"2025-01-01"}`)
	res := ParseFile(DiscoveredFile{Path: path, Format: FormatJSONL})
	if res.Err != nil || len(res.Expenses) != 1 {
		t.Fatalf("ParseFile = %+v", res)
	}
	if res := ParseFile(DiscoveredFile{Path: path, Format: FormatYAML}); res.Err == nil {
		t.Fatal("expected error for yaml expense import")
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jsonl", "sub/b.xlsx", "c.yaml", "d.txt", "~$lock.xlsx"} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %+v", len(files), files)
	}
	if files[0].Format != FormatJSONL || files[1].Format != FormatXLSX {
		t.Errorf("formats = %s, %s", files[0].Format, files[1].Format)
	}

	missing, err := ScanDir(filepath.Join(dir, "missing"))
	if err != nil || missing != nil {
		t.Errorf("missing dir = %v, %v", missing, err)
	}

	found, skipped, err := Discover([]string{dir, filepath.Join(dir, "d.txt")})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 2 || len(skipped) != 1 {
		t.Errorf("Discover = %d found, %d skipped", len(found), len(skipped))
	}
}

func TestObligationsYAMLRoundTrip(t *testing.T) {
	path := writeFile(t, "obligations.yaml",
		`obligations:`,
		`  - kind: subscriptions`,
		`    name: Video`,
		`    amount: "9,99"`,
		`    due: 2025-01-31`,
		`    recurrence: monthly`,
		`  - kind: bill`,
		`    name: Water`,
		`    amount: "30"`,
		`    due: 2025-02-10T08:00:00Z`,
		`    recurrence: quarterly`,
		`    paused: true`,
	)

	got, err := ParseObligationsYAML(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d obligations, want 2", len(got))
	}
	if got[0].Kind != model.KindSubscription || !got[0].Amount.Equal(decimal.RequireFromString("9.99")) || !got[0].Active {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Active {
		t.Error("paused entry should be inactive")
	}

	out := filepath.Join(t.TempDir(), "export.yaml")
	if err := WriteObligationsYAML(out, got); err != nil {
		t.Fatal(err)
	}
	again, err := ParseObligationsYAML(out)
	if err != nil {
		t.Fatal(err)
	}
	if !again[1].DueAt.Equal(got[1].DueAt) || again[0].Name != "Video" {
		t.Errorf("round trip = %+v", again)
	}
}

func TestParseObligationsYAML_Invalid(t *testing.T) {
	path := writeFile(t, "bad.yaml",
		`obligations:`,
		`  - kind: loan`,
		`    name: Car`,
		`    amount: "100"`,
		`    due: 2025-01-01`,
		`    recurrence: monthly`,
	)
	if _, err := ParseObligationsYAML(path); !errors.Is(err, model.ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}

	path = writeFile(t, "nodate.yaml",
		`obligations:`,
		`  - kind: bill`,
		`    name: Car`,
		`    amount: "100"`,
		`    recurrence: monthly`,
	)
	if _, err := ParseObligationsYAML(path); !errors.Is(err, model.ErrInvalidObligation) {
		t.Fatalf("err = %v, want ErrInvalidObligation", err)
	}
}

func TestAssignIDs(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.Expense{
		{Amount: decimal.NewFromInt(3), Category: "Coffee", SpentAt: day},
		{Amount: decimal.NewFromInt(3), Category: "Coffee", SpentAt: day},
		{ID: "keep", Amount: decimal.NewFromInt(3), SpentAt: day},
	}
	AssignIDs("bank.xlsx", rows)
	if rows[0].ID == "" || rows[0].ID == rows[1].ID {
		t.Fatalf("ids = %q, %q", rows[0].ID, rows[1].ID)
	}
	if rows[2].ID != "keep" {
		t.Errorf("existing id overwritten: %q", rows[2].ID)
	}

	again := []model.Expense{
		{Amount: decimal.NewFromInt(3), Category: "Coffee", SpentAt: day},
	}
	AssignIDs("bank.xlsx", again)
	if again[0].ID != rows[0].ID {
		t.Errorf("id not stable: %q vs %q", again[0].ID, rows[0].ID)
	}
}
