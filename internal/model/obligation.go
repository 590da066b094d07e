package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownKind       = errors.New("unknown obligation kind")
	ErrUnknownRecurrence = errors.New("unknown recurrence period")
	ErrInvalidObligation = errors.New("invalid obligation")
)

// Kind distinguishes the two obligation collections. They are scanned independently.
type Kind string

const (
	KindSubscription Kind = "subscription"
	KindBill         Kind = "bill"
)

// Kinds lists every obligation kind in scan order.
var Kinds = []Kind{KindSubscription, KindBill}

// ParseKind accepts singular or plural forms ("bill", "bills").
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "subscription":
		return KindSubscription, nil
	case "bill":
		return KindBill, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Recurrence is how often an obligation comes due.
type Recurrence string

const (
	Daily     Recurrence = "daily"
	Weekly    Recurrence = "weekly"
	Monthly   Recurrence = "monthly"
	Quarterly Recurrence = "quarterly"
	Yearly    Recurrence = "yearly"
)

// ParseRecurrence parses a recurrence period name.
func ParseRecurrence(s string) (Recurrence, error) {
	r := Recurrence(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case Daily, Weekly, Monthly, Quarterly, Yearly:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRecurrence, s)
}

// Months returns the number of calendar months in one period, or 0 for day-based periods.
func (r Recurrence) Months() int {
	switch r {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case Yearly:
		return 12
	}
	return 0
}

// Obligation is a recurring subscription or bill.
type Obligation struct {
	ID         string
	Kind       Kind
	Name       string
	Amount     decimal.Decimal
	DueAt      time.Time
	Recurrence Recurrence
	AnchorDay  int // intended day of month, survives short months
	Active     bool
	Settled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the fields a user can set.
func (o Obligation) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidObligation)
	}
	if o.Amount.IsNegative() {
		return fmt.Errorf("%w: amount %s is negative", ErrInvalidObligation, o.Amount)
	}
	if o.DueAt.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrInvalidObligation)
	}
	if _, err := ParseKind(string(o.Kind)); err != nil {
		return err
	}
	if _, err := ParseRecurrence(string(o.Recurrence)); err != nil {
		return err
	}
	return nil
}

// EffectiveAnchorDay returns AnchorDay, falling back to the due date's day.
func (o Obligation) EffectiveAnchorDay() int {
	if o.AnchorDay >= 1 && o.AnchorDay <= 31 {
		return o.AnchorDay
	}
	return o.DueAt.Day()
}

// ReminderEvent is produced by a scan for each obligation inside the lookahead window.
type ReminderEvent struct {
	ObligationID   string          `json:"obligation_id"`
	Kind           Kind            `json:"kind"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	DueAt          time.Time       `json:"due_at"`
	DaysRemaining  int             `json:"days_remaining"`
	NotificationID int32           `json:"notification_id"`
}
