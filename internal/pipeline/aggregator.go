// Package pipeline loads expense imports and aggregates spending totals.
package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/shopspring/decimal"
)

// ExpenseSource lists stored expenses in a half-open time range.
type ExpenseSource interface {
	ListExpenses(ctx context.Context, since, until time.Time) ([]model.Expense, error)
}

// Aggregator derives period totals from stored expenses.
type Aggregator struct {
	src ExpenseSource
	now func() time.Time
}

// NewAggregator creates an Aggregator over src. now defaults to the current
// UTC time; expense dates are UTC so period bounds are too.
func NewAggregator(src ExpenseSource, now func() time.Time) *Aggregator {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Aggregator{src: src, now: now}
}

func (a *Aggregator) load(ctx context.Context, period model.Period) ([]model.Expense, error) {
	since, until := period.Bounds(a.now())
	return a.src.ListExpenses(ctx, since, until)
}

// SumExpenses returns total spending for the period.
func (a *Aggregator) SumExpenses(ctx context.Context, period model.Period) (decimal.Decimal, error) {
	expenses, err := a.load(ctx, period)
	if err != nil {
		return decimal.Zero, err
	}
	return Sum(expenses), nil
}

// ExpensesByCategory returns per-category totals for the period, largest first.
func (a *Aggregator) ExpensesByCategory(ctx context.Context, period model.Period) ([]model.CategoryTotal, error) {
	expenses, err := a.load(ctx, period)
	if err != nil {
		return nil, err
	}
	return ByCategory(expenses), nil
}

// CategoriesMatching is ExpensesByCategory restricted to categories whose
// name contains filter, ignoring case. An empty filter matches everything.
func (a *Aggregator) CategoriesMatching(ctx context.Context, period model.Period, filter string) ([]model.CategoryTotal, error) {
	expenses, err := a.load(ctx, period)
	if err != nil {
		return nil, err
	}
	return ByCategory(FilterByCategory(expenses, filter)), nil
}

// DailySpending returns one bucket per day of the period up to today.
func (a *Aggregator) DailySpending(ctx context.Context, period model.Period) ([]DailySpend, error) {
	now := a.now()
	since, until := period.Bounds(now)
	expenses, err := a.src.ListExpenses(ctx, since, until)
	if err != nil {
		return nil, err
	}
	if until.After(now) {
		until = now
	}
	return AggregateDays(expenses, since, until), nil
}

// Sum adds up expense amounts.
func Sum(expenses []model.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// ByCategory computes per-category totals sorted by total descending, then name.
func ByCategory(expenses []model.Expense) []model.CategoryTotal {
	catMap := make(map[string]*model.CategoryTotal)
	total := decimal.Zero

	for _, e := range expenses {
		name := e.CategoryOrDefault()
		ct, ok := catMap[name]
		if !ok {
			ct = &model.CategoryTotal{Category: name}
			catMap[name] = ct
		}
		ct.Total = ct.Total.Add(e.Amount)
		ct.Count++
		total = total.Add(e.Amount)
	}

	cats := make([]model.CategoryTotal, 0, len(catMap))
	for _, ct := range catMap {
		if total.IsPositive() {
			ct.Share, _ = ct.Total.Div(total).Float64()
		}
		cats = append(cats, *ct)
	}
	sort.Slice(cats, func(i, j int) bool {
		if c := cats[i].Total.Cmp(cats[j].Total); c != 0 {
			return c > 0
		}
		return cats[i].Category < cats[j].Category
	})

	return cats
}

// DailySpend is the spending total for one calendar day.
type DailySpend struct {
	Date  time.Time
	Total decimal.Decimal
	Count int
}

// AggregateDays buckets expenses by UTC day and fills every day starting in
// [since, until) so charts show gaps as zeros. Oldest day first.
func AggregateDays(expenses []model.Expense, since, until time.Time) []DailySpend {
	dayMap := make(map[string]*DailySpend)

	for _, e := range FilterByTime(expenses, since, until) {
		if e.SpentAt.IsZero() {
			continue
		}
		day := e.SpentAt.UTC().Truncate(24 * time.Hour)
		key := day.Format("2006-01-02")
		ds, ok := dayMap[key]
		if !ok {
			ds = &DailySpend{Date: day}
			dayMap[key] = ds
		}
		ds.Total = ds.Total.Add(e.Amount)
		ds.Count++
	}

	if !since.IsZero() && !until.IsZero() {
		for day := since.UTC().Truncate(24 * time.Hour); day.Before(until); day = day.AddDate(0, 0, 1) {
			key := day.Format("2006-01-02")
			if _, ok := dayMap[key]; !ok {
				dayMap[key] = &DailySpend{Date: day}
			}
		}
	}

	days := make([]DailySpend, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	return days
}

// FilterByTime returns expenses whose SpentAt falls within [since, until).
func FilterByTime(expenses []model.Expense, since, until time.Time) []model.Expense {
	if since.IsZero() && until.IsZero() {
		return expenses
	}

	var result []model.Expense
	for _, e := range expenses {
		if e.SpentAt.IsZero() {
			continue
		}
		if !since.IsZero() && e.SpentAt.Before(since) {
			continue
		}
		if !until.IsZero() && !e.SpentAt.Before(until) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// FilterByCategory returns expenses whose category contains the substring.
func FilterByCategory(expenses []model.Expense, category string) []model.Expense {
	if category == "" {
		return expenses
	}
	var result []model.Expense
	for _, e := range expenses {
		if containsIgnoreCase(e.CategoryOrDefault(), category) {
			result = append(result, e)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
