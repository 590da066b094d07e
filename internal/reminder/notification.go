package reminder

import (
	"fmt"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/cespare/xxhash/v2"
)

// NotificationID derives a positive int32 from the obligation identity alone.
// The same obligation always maps to the same ID so repeated scans replace
// rather than duplicate a pending notification.
func NotificationID(kind model.Kind, obligationID string) int32 {
	h := xxhash.New()
	_, _ = h.WriteString(string(kind))
	_, _ = h.WriteString(":")
	_, _ = h.WriteString(obligationID)
	return int32(h.Sum64() & 0x7fffffff)
}

// Compose renders the user-facing text for an event.
func Compose(ev model.ReminderEvent) Notification {
	var title string
	switch ev.Kind {
	case model.KindBill:
		title = "Bill due"
	default:
		title = "Subscription renewal"
	}

	var when string
	switch ev.DaysRemaining {
	case 0:
		when = "today"
	case 1:
		when = "tomorrow"
	default:
		when = fmt.Sprintf("in %d days", ev.DaysRemaining)
	}

	body := fmt.Sprintf("%s (%s) is due %s, %s.",
		ev.Name, ev.Amount.StringFixed(2), when, ev.DueAt.Format("Mon Jan 2"))
	return Notification{Title: title, Body: body, StableID: ev.NotificationID}
}
