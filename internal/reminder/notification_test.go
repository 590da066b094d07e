package reminder

import (
	"testing"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNotificationID(t *testing.T) {
	a := NotificationID(model.KindSubscription, "obl-1")
	assert.Equal(t, a, NotificationID(model.KindSubscription, "obl-1"))
	assert.GreaterOrEqual(t, a, int32(0))
	assert.NotEqual(t, a, NotificationID(model.KindBill, "obl-1"))
	assert.NotEqual(t, a, NotificationID(model.KindSubscription, "obl-2"))
}

func TestCompose(t *testing.T) {
	ev := model.ReminderEvent{
		ObligationID:   "x",
		Kind:           model.KindBill,
		Name:           "Electricity",
		Amount:         decimal.RequireFromString("80.5"),
		DueAt:          time.Date(2025, time.June, 12, 0, 0, 0, 0, time.UTC),
		DaysRemaining:  2,
		NotificationID: 42,
	}
	n := Compose(ev)
	assert.Equal(t, "Bill due", n.Title)
	assert.Equal(t, "Electricity (80.50) is due in 2 days, Thu Jun 12.", n.Body)
	assert.Equal(t, int32(42), n.StableID)

	ev.DaysRemaining = 0
	assert.Contains(t, Compose(ev).Body, "due today")
	ev.DaysRemaining = 1
	ev.Kind = model.KindSubscription
	n = Compose(ev)
	assert.Contains(t, n.Body, "due tomorrow")
	assert.Equal(t, "Subscription renewal", n.Title)
}
