// Package reminder scans recurring obligations and emits reminders for those
// coming due inside the lookahead window.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/schedule"

	"go.uber.org/zap"
)

// DefaultLookaheadDays is used when Config.LookaheadDays is not positive.
const DefaultLookaheadDays = 3

// ObligationStore is the read side a scan needs.
type ObligationStore interface {
	ListActiveUnsettled(ctx context.Context, kind model.Kind) ([]model.Obligation, error)
}

// Notification is the payload handed to a Notifier.
type Notification struct {
	Title    string
	Body     string
	StableID int32
}

// Notifier delivers a notification. Delivery is best effort; errors are logged
// by the scheduler and never retried.
type Notifier interface {
	Deliver(ctx context.Context, n Notification) error
}

// Observer receives every event a scan emits, after delivery was attempted.
type Observer func(ev model.ReminderEvent, delivered bool)

// Config tunes a Scheduler.
type Config struct {
	Kind          model.Kind
	LookaheadDays int
	Now           func() time.Time // defaults to time.Now
	Observer      Observer
}

// Scheduler scans one obligation kind. Run one instance per kind.
type Scheduler struct {
	store    ObligationStore
	notifier Notifier
	log      *zap.Logger
	cfg      Config
}

// New creates a Scheduler. log may be nil.
func New(store ObligationStore, notifier Notifier, log *zap.Logger, cfg Config) *Scheduler {
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = DefaultLookaheadDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		store:    store,
		notifier: notifier,
		log:      log.With(zap.String("kind", string(cfg.Kind))),
		cfg:      cfg,
	}
}

// Kind returns the obligation kind this scheduler scans.
func (s *Scheduler) Kind() model.Kind { return s.cfg.Kind }

// LookaheadDays returns the effective lookahead window.
func (s *Scheduler) LookaheadDays() int { return s.cfg.LookaheadDays }

// Scan lists active, unsettled obligations and delivers a reminder for each one
// due within the lookahead window. A store failure aborts the scan before any
// delivery. Delivery failures are logged and skipped.
func (s *Scheduler) Scan(ctx context.Context) ([]model.ReminderEvent, error) {
	obligations, err := s.store.ListActiveUnsettled(ctx, s.cfg.Kind)
	if err != nil {
		return nil, fmt.Errorf("list %s obligations: %w", s.cfg.Kind, err)
	}

	events := Due(obligations, s.cfg.Kind, s.cfg.Now(), s.cfg.LookaheadDays)
	for _, ev := range events {
		delivered := true
		if err := s.notifier.Deliver(ctx, Compose(ev)); err != nil {
			delivered = false
			s.log.Error("deliver reminder failed",
				zap.Error(err),
				zap.String("obligation_id", ev.ObligationID),
				zap.Int32("notification_id", ev.NotificationID),
			)
		}
		if s.cfg.Observer != nil {
			s.cfg.Observer(ev, delivered)
		}
	}
	return events, nil
}

// RunScan is the entrypoint for periodic triggers. It runs Scan and logs
// the outcome, then hands the result on for callers that record it.
func (s *Scheduler) RunScan(ctx context.Context) ([]model.ReminderEvent, error) {
	start := time.Now()
	events, err := s.Scan(ctx)
	if err != nil {
		s.log.Error("reminder scan aborted", zap.Error(err))
		return nil, err
	}
	s.log.Info("reminder scan complete",
		zap.Int("reminders", len(events)),
		zap.Duration("took", time.Since(start)),
	)
	return events, nil
}

// Due returns the reminder events for obligations whose due date is between
// now and now+lookahead days. Inactive or settled obligations are skipped.
func Due(obligations []model.Obligation, kind model.Kind, now time.Time, lookahead int) []model.ReminderEvent {
	var events []model.ReminderEvent
	for _, o := range obligations {
		if !o.Active || o.Settled {
			continue
		}
		days := schedule.DaysUntil(o.DueAt, now)
		if days < 0 || days > lookahead {
			continue
		}
		events = append(events, model.ReminderEvent{
			ObligationID:   o.ID,
			Kind:           kind,
			Name:           o.Name,
			Amount:         o.Amount,
			DueAt:          o.DueAt,
			DaysRemaining:  days,
			NotificationID: NotificationID(kind, o.ID),
		})
	}
	return events
}
