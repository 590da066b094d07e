// Package model defines domain types for goal bands, expenses and recurring obligations.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidBand is returned when a goal band violates 0 <= min <= max or income >= 0.
	ErrInvalidBand = errors.New("invalid goal band")
	// ErrInvalidAmount is returned when a money amount cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
)

// GoalBand is the user's savings target range plus declared monthly income.
type GoalBand struct {
	MinGoal       decimal.Decimal
	MaxGoal       decimal.Decimal
	MonthlyIncome decimal.Decimal
}

// Validate reports whether the band satisfies 0 <= MinGoal <= MaxGoal and MonthlyIncome >= 0.
func (b GoalBand) Validate() error {
	if b.MinGoal.IsNegative() {
		return fmt.Errorf("%w: min goal %s is negative", ErrInvalidBand, b.MinGoal)
	}
	if b.MaxGoal.LessThan(b.MinGoal) {
		return fmt.Errorf("%w: max goal %s is below min goal %s", ErrInvalidBand, b.MaxGoal, b.MinGoal)
	}
	if b.MonthlyIncome.IsNegative() {
		return fmt.Errorf("%w: monthly income %s is negative", ErrInvalidBand, b.MonthlyIncome)
	}
	return nil
}

// ParseGoalBand parses user-entered text into a validated band.
func ParseGoalBand(minGoal, maxGoal, income string) (GoalBand, error) {
	var (
		b   GoalBand
		err error
	)
	if b.MinGoal, err = ParseAmount(minGoal); err != nil {
		return GoalBand{}, fmt.Errorf("min goal: %w", err)
	}
	if b.MaxGoal, err = ParseAmount(maxGoal); err != nil {
		return GoalBand{}, fmt.Errorf("max goal: %w", err)
	}
	if b.MonthlyIncome, err = ParseAmount(income); err != nil {
		return GoalBand{}, fmt.Errorf("monthly income: %w", err)
	}
	if err := b.Validate(); err != nil {
		return GoalBand{}, err
	}
	return b, nil
}

// ParseAmount parses a money amount. A comma decimal separator is accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Status classifies how a period's remainder compares against a goal band.
type Status string

const (
	StatusNone        Status = ""
	StatusAchieved    Status = "achieved"
	StatusPartial     Status = "partial"
	StatusNotAchieved Status = "not_achieved"
)

// Label returns a short human-readable label.
func (s Status) Label() string {
	switch s {
	case StatusAchieved:
		return "Achieved"
	case StatusPartial:
		return "Partially achieved"
	case StatusNotAchieved:
		return "Not achieved"
	default:
		return "No status"
	}
}

// StatusResult is the outcome of evaluating spending against a goal band.
// It is recomputed on every read and never persisted.
type StatusResult struct {
	Status    Status
	Band      GoalBand
	Spending  decimal.Decimal
	Remainder decimal.Decimal
}

// IsNone reports whether the result carries no status.
func (r StatusResult) IsNone() bool {
	return r.Status == StatusNone
}
