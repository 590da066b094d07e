// Package goal evaluates spending against the user's savings goal band.
package goal

import (
	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/shopspring/decimal"
)

// Evaluate classifies the remainder (income minus spending) against the band.
//
// Rules are applied in order: remainder > max is achieved, remainder > min is
// partial, anything else is not achieved. A nil band yields a result with
// model.StatusNone. Evaluate has no side effects and is safe for concurrent use.
func Evaluate(band *model.GoalBand, totalSpending decimal.Decimal) model.StatusResult {
	if band == nil {
		return model.StatusResult{Status: model.StatusNone}
	}

	remainder := band.MonthlyIncome.Sub(totalSpending)
	res := model.StatusResult{
		Band:      *band,
		Spending:  totalSpending,
		Remainder: remainder,
	}

	switch {
	case remainder.GreaterThan(band.MaxGoal):
		res.Status = model.StatusAchieved
	case remainder.GreaterThan(band.MinGoal):
		res.Status = model.StatusPartial
	default:
		res.Status = model.StatusNotAchieved
	}
	return res
}

// Progress returns the remainder as a fraction of the max goal, clamped to [0, 1].
func Progress(res model.StatusResult) float64 {
	if res.IsNone() || !res.Band.MaxGoal.IsPositive() {
		return 0
	}
	pct, _ := res.Remainder.Div(res.Band.MaxGoal).Float64()
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}
