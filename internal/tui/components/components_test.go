package components

import (
	"strings"
	"testing"

	"github.com/pocketsafe/pocketsafe/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	widths := LayoutRow(10, 3)
	if len(widths) != 3 || widths[0] != 4 || widths[1] != 3 || widths[2] != 3 {
		t.Fatalf("LayoutRow(10, 3) = %v", widths)
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow with n=0 should be nil")
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("test setup error: short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}

	want := lipgloss.Width(tallCard) + lipgloss.Width(shortCard)
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
		// padding below the short card must still be styled
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("line %d has no ANSI codes", i)
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Income", Value: "$3,000.00"},
		{Label: "Spent", Value: "$2,100.00", Delta: "70%"},
		{Label: "Left", Value: "$900.00"},
	}, 90)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 90 {
			t.Errorf("line %d width = %d, want 90", i, w)
		}
	}
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	for active := range Tabs {
		bar := RenderTabBar(active, 0)
		want := 0
		for i, tab := range Tabs {
			want += TabVisualWidth(tab, i == active)
		}
		want += len(Tabs) - 1 // separators
		if got := lipgloss.Width(bar); got != want {
			t.Errorf("active=%d: bar width = %d, want %d", active, got, want)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('b'); got != 1 {
		t.Errorf("TabIdxByKey('b') = %d", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d", got)
	}
}

func TestCharts(t *testing.T) {
	if Sparkline(nil, theme.Active.Chart) != "" {
		t.Error("empty sparkline should render nothing")
	}

	chart := ColumnChart([]float64{10, 40, 0, 25}, []string{"1", "2", "3", "4"}, theme.Active.Chart, 40, 4)
	lines := strings.Split(chart, "\n")
	// 4 rows + axis + labels
	if len(lines) != 6 {
		t.Fatalf("chart lines = %d, want 6:\n%s", len(lines), chart)
	}
	if !strings.Contains(lines[0], "40") {
		t.Errorf("top label missing ceiling 40: %q", lines[0])
	}

	bars := HorizontalBars([]Bar{
		{Label: "Food", Value: 200, Text: "$200.00"},
		{Label: "Books", Value: 50, Text: "$50.00"},
	}, theme.Active.Chart, 50)
	if strings.Count(bars, "\n") != 1 || !strings.Contains(bars, "Books") {
		t.Errorf("bars = %q", bars)
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := map[float64]string{0.5: "0.50", 40: "40", 1000: "1k", 1500: "1.5k", 2e6: "2M"}
	for v, want := range tests {
		if got := FormatChartLabel(v); got != want {
			t.Errorf("FormatChartLabel(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestStatusBarFillsWidth(t *testing.T) {
	bar := RenderStatusBar(100, "updated 2s ago", true)
	if w := lipgloss.Width(bar); w != 100 {
		t.Errorf("status bar width = %d, want 100", w)
	}
}

func TestLabeledBar(t *testing.T) {
	out := LabeledBar("Toward max", 1.7, theme.Active.Achieved, 8, 10)
	if !strings.Contains(out, "100%") {
		t.Errorf("expected clamped 100%%, got %q", out)
	}
	if !strings.Contains(out, "Toward …") {
		t.Errorf("expected truncated label, got %q", out)
	}
	if w := lipgloss.Width(out); w != 8+1+10+1+4 {
		t.Errorf("width = %d, want %d", w, 24)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"groceries", 0, ""},
		{"rent", 10, "rent"},
		{"groceries", 5, "groc…"},
		{"café au lait", 5, "café…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
