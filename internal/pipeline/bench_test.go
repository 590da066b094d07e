package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/shopspring/decimal"
)

func syntheticExpenses(n int) []model.Expense {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Expense, n)
	for i := range out {
		out[i] = model.Expense{
			ID:       fmt.Sprintf("e%d", i),
			Amount:   decimal.New(int64(100+i%900), -2),
			Category: fmt.Sprintf("cat-%d", i%12),
			SpentAt:  start.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func BenchmarkByCategory(b *testing.B) {
	expenses := syntheticExpenses(50_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ByCategory(expenses)
	}
}

func BenchmarkAggregateDays(b *testing.B) {
	expenses := syntheticExpenses(50_000)
	since := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(1, 0, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AggregateDays(expenses, since, until)
	}
}
