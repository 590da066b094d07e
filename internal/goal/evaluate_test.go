package goal

import (
	"sync"
	"testing"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func band(minGoal, maxGoal, income int64) *model.GoalBand {
	return &model.GoalBand{
		MinGoal:       decimal.NewFromInt(minGoal),
		MaxGoal:       decimal.NewFromInt(maxGoal),
		MonthlyIncome: decimal.NewFromInt(income),
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		spending  int64
		want      model.Status
		remainder int64
	}{
		{"remainder above max", 2000, model.StatusAchieved, 1000},
		{"remainder inside band", 2600, model.StatusPartial, 400},
		{"remainder below min", 2950, model.StatusNotAchieved, 50},
		{"remainder equals max", 2500, model.StatusPartial, 500},
		{"remainder equals min", 2900, model.StatusNotAchieved, 100},
		{"negative remainder", 3500, model.StatusNotAchieved, -500},
	}

	b := band(100, 500, 3000)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(b, decimal.NewFromInt(tt.spending))
			assert.Equal(t, tt.want, res.Status)
			assert.True(t, res.Remainder.Equal(decimal.NewFromInt(tt.remainder)), "remainder = %s", res.Remainder)
			assert.Equal(t, *b, res.Band)
		})
	}
}

func TestEvaluate_NilBandIsNeutral(t *testing.T) {
	res := Evaluate(nil, decimal.NewFromInt(100))
	assert.True(t, res.IsNone())
	assert.Equal(t, model.StatusNone, res.Status)
}

func TestEvaluate_EqualMinMaxSkipsPartial(t *testing.T) {
	b := band(300, 300, 1000)
	assert.Equal(t, model.StatusAchieved, Evaluate(b, decimal.NewFromInt(600)).Status)
	assert.Equal(t, model.StatusNotAchieved, Evaluate(b, decimal.NewFromInt(700)).Status)
}

func TestEvaluate_FractionalAmounts(t *testing.T) {
	b := &model.GoalBand{
		MinGoal:       decimal.RequireFromString("100.00"),
		MaxGoal:       decimal.RequireFromString("500.00"),
		MonthlyIncome: decimal.RequireFromString("3000.10"),
	}
	// 3000.10 - 2500.09 = 500.01 > 500
	assert.Equal(t, model.StatusAchieved, Evaluate(b, decimal.RequireFromString("2500.09")).Status)
	// 3000.10 - 2500.10 = 500.00 == 500
	assert.Equal(t, model.StatusPartial, Evaluate(b, decimal.RequireFromString("2500.10")).Status)
}

func TestEvaluate_Idempotent(t *testing.T) {
	b := band(100, 500, 3000)
	first := Evaluate(b, decimal.NewFromInt(2600))
	second := Evaluate(b, decimal.NewFromInt(2600))
	assert.Equal(t, first, second)
}

func TestEvaluate_ConcurrentReaders(t *testing.T) {
	b := band(100, 500, 3000)
	want := Evaluate(b, decimal.NewFromInt(2600))

	var wg sync.WaitGroup
	results := make([]model.StatusResult, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Evaluate(b, decimal.NewFromInt(2600))
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		require.Equal(t, want, got, "reader %d", i)
	}
}

func TestProgress(t *testing.T) {
	b := band(100, 500, 3000)
	assert.InDelta(t, 0.8, Progress(Evaluate(b, decimal.NewFromInt(2600))), 1e-9)
	assert.Equal(t, 1.0, Progress(Evaluate(b, decimal.NewFromInt(1000))))
	assert.Equal(t, 0.0, Progress(Evaluate(b, decimal.NewFromInt(4000))))
	assert.Equal(t, 0.0, Progress(Evaluate(nil, decimal.Zero)))
}
