package schedule

import (
	"testing"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{"later today", now.Add(5 * time.Hour), 0},
		{"exactly now", now, 0},
		{"hours ago", now.Add(-3 * time.Hour), -1},
		{"tomorrow", now.Add(24 * time.Hour), 1},
		{"almost two days", now.Add(47 * time.Hour), 1},
		{"three days", now.Add(72 * time.Hour), 3},
		{"four days", now.Add(96 * time.Hour), 4},
		{"two days ago", now.Add(-48 * time.Hour), -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(tt.due, now))
		})
	}
}

func TestInWindow(t *testing.T) {
	assert.True(t, InWindow(now, now, 3))
	assert.True(t, InWindow(now.Add(72*time.Hour), now, 3))
	assert.False(t, InWindow(now.Add(96*time.Hour), now, 3))
	assert.False(t, InWindow(now.Add(-time.Hour), now, 3))
	assert.True(t, InWindow(now.Add(time.Hour), now, 0))
}

func TestNextDue_MonthEndClamps(t *testing.T) {
	o := model.Obligation{
		DueAt:      time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		Recurrence: model.Monthly,
	}

	o = Advance(o)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), o.DueAt)
	assert.Equal(t, 31, o.AnchorDay)

	o = Advance(o)
	assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), o.DueAt)

	o = Advance(o)
	assert.Equal(t, time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC), o.DueAt)
}

func TestNextDue_Periods(t *testing.T) {
	start := time.Date(2024, time.February, 29, 8, 30, 0, 0, time.UTC)
	tests := []struct {
		rec  model.Recurrence
		want time.Time
	}{
		{model.Daily, time.Date(2024, time.March, 1, 8, 30, 0, 0, time.UTC)},
		{model.Weekly, time.Date(2024, time.March, 7, 8, 30, 0, 0, time.UTC)},
		{model.Monthly, time.Date(2024, time.March, 29, 8, 30, 0, 0, time.UTC)},
		{model.Quarterly, time.Date(2024, time.May, 29, 8, 30, 0, 0, time.UTC)},
		{model.Yearly, time.Date(2025, time.February, 28, 8, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.rec), func(t *testing.T) {
			got := NextDue(model.Obligation{DueAt: start, Recurrence: tt.rec})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdvance_ClearsSettled(t *testing.T) {
	o := model.Obligation{
		DueAt:      time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Recurrence: model.Monthly,
		Settled:    true,
	}
	next := Advance(o)
	assert.False(t, next.Settled)
	assert.True(t, o.Settled, "input must not be mutated")
}

func TestAdvancePast(t *testing.T) {
	o := model.Obligation{
		DueAt:      time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
		Recurrence: model.Monthly,
	}
	got := AdvancePast(o, now)
	assert.Equal(t, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), got.DueAt)
}
