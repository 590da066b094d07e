// Package schedule computes due-date arithmetic for recurring obligations.
package schedule

import (
	"math"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"
)

const day = 24 * time.Hour

// DaysUntil returns floor((due - now) / 24h). An obligation due later today is 0,
// one that passed a few hours ago is -1.
func DaysUntil(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Hours() / 24))
}

// InWindow reports whether 0 <= DaysUntil(due, now) <= lookahead.
func InWindow(due, now time.Time, lookahead int) bool {
	d := DaysUntil(due, now)
	return d >= 0 && d <= lookahead
}

// NextDue returns the due date one recurrence period after o.DueAt.
// Month-based periods keep the anchor day, clamped to the target month's length.
func NextDue(o model.Obligation) time.Time {
	switch o.Recurrence {
	case model.Daily:
		return o.DueAt.Add(day)
	case model.Weekly:
		return o.DueAt.Add(7 * day)
	}

	months := o.Recurrence.Months()
	if months == 0 {
		months = 1
	}
	return addMonths(o.DueAt, months, o.EffectiveAnchorDay())
}

// Advance moves o to its next due date and clears Settled.
func Advance(o model.Obligation) model.Obligation {
	if o.AnchorDay == 0 {
		o.AnchorDay = o.DueAt.Day()
	}
	o.DueAt = NextDue(o)
	o.Settled = false
	return o
}

// AdvancePast advances o until its due date is no earlier than now.
// Used to catch up obligations whose cycles were missed while nobody ran a scan.
func AdvancePast(o model.Obligation, now time.Time) model.Obligation {
	for o.DueAt.Before(now) {
		o = Advance(o)
	}
	return o
}

func addMonths(t time.Time, months, anchor int) time.Time {
	y, m, _ := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	d := anchor
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
