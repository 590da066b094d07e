package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single recorded spending entry.
type Expense struct {
	ID        string
	Amount    decimal.Decimal
	Category  string
	Note      string
	SpentAt   time.Time
	CreatedAt time.Time
}

// UncategorizedLabel is used for expenses without a category.
const UncategorizedLabel = "Uncategorized"

// CategoryOrDefault returns the expense category or UncategorizedLabel.
func (e Expense) CategoryOrDefault() string {
	if c := strings.TrimSpace(e.Category); c != "" {
		return c
	}
	return UncategorizedLabel
}

// CategoryTotal is the spending sum for one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
	Share    float64 // 0-1 of the period total
}

// Period is a reporting window for spending totals.
type Period string

const (
	PeriodCurrentMonth Period = "month"
	PeriodLastMonth    Period = "last-month"
	PeriodYear         Period = "year"
)

// ParsePeriod parses a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodCurrentMonth, PeriodLastMonth, PeriodYear:
		return p, nil
	case "":
		return PeriodCurrentMonth, nil
	}
	return "", fmt.Errorf("unknown period %q (want month, last-month or year)", s)
}

// Bounds returns the half-open [since, until) range of the period containing now.
func (p Period) Bounds(now time.Time) (since, until time.Time) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	switch p {
	case PeriodLastMonth:
		return monthStart.AddDate(0, -1, 0), monthStart
	case PeriodYear:
		yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return yearStart, yearStart.AddDate(1, 0, 0)
	default:
		return monthStart, monthStart.AddDate(0, 1, 0)
	}
}

// Label returns a display label for the period.
func (p Period) Label() string {
	switch p {
	case PeriodLastMonth:
		return "Last month"
	case PeriodYear:
		return "This year"
	default:
		return "This month"
	}
}
