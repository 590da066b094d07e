// Package daemon provides the long-running reminder service and its HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/reminder"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Interval      time.Duration
	Addr          string
	EventsBuffer  int
	LookaheadDays int
	Period        model.Period
	Kinds         []model.Kind // defaults to model.Kinds
	Now           func() time.Time
}

// GoalStatus reports the current goal status for a period.
type GoalStatus interface {
	Status(ctx context.Context, period model.Period) model.StatusResult
}

// GoalSnapshot is the goal status as served over HTTP.
type GoalSnapshot struct {
	Period    model.Period `json:"period"`
	Status    model.Status `json:"status"`
	Label     string       `json:"label"`
	Spending  string       `json:"spending,omitempty"`
	Remainder string       `json:"remainder,omitempty"`
	MinGoal   string       `json:"min_goal,omitempty"`
	MaxGoal   string       `json:"max_goal,omitempty"`
}

// Event types.
const (
	EventReminder = "reminder"
	EventScan     = "scan"
	EventSnapshot = "snapshot"
)

// Event is emitted for every reminder and after every scan of a kind.
type Event struct {
	ID        int64                `json:"id"`
	Type      string               `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	Kind      model.Kind           `json:"kind,omitempty"`
	Reminder  *model.ReminderEvent `json:"reminder,omitempty"`
	Delivered bool                 `json:"delivered,omitempty"`
	Count     int                  `json:"count,omitempty"`
	Error     string               `json:"error,omitempty"`
	Goal      *GoalSnapshot        `json:"goal,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt        time.Time    `json:"started_at"`
	LastScanAt       time.Time    `json:"last_scan_at"`
	ScanIntervalSec  int          `json:"scan_interval_sec"`
	LookaheadDays    int          `json:"lookahead_days"`
	ScanCount        int64        `json:"scan_count"`
	RemindersEmitted int64        `json:"reminders_emitted"`
	DeliveryFailures int64        `json:"delivery_failures"`
	Goal             GoalSnapshot `json:"goal"`
	LastError        string       `json:"last_error,omitempty"`
	EventCount       int          `json:"event_count"`
	SubscriberCount  int          `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg        Config
	log        *zap.Logger
	goals      GoalStatus
	schedulers []*reminder.Scheduler
	metrics    *Metrics

	mu               sync.RWMutex
	startedAt        time.Time
	lastScanAt       time.Time
	scanCount        int64
	remindersEmitted int64
	deliveryFailures int64
	lastError        string
	goal             GoalSnapshot
	nextEventID      int64
	events           []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service that scans obligations from store and delivers
// through notifier. goals may be nil when no goal status should be tracked.
func New(cfg Config, store reminder.ObligationStore, notifier reminder.Notifier, goals GoalStatus, log *zap.Logger) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8797"
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = reminder.DefaultLookaheadDays
	}
	if cfg.Period == "" {
		cfg.Period = model.PeriodCurrentMonth
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = model.Kinds
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		cfg:       cfg,
		log:       log.Named("daemon"),
		goals:     goals,
		metrics:   NewMetrics(),
		startedAt: cfg.Now(),
		goal:      GoalSnapshot{Period: cfg.Period, Label: model.StatusNone.Label()},
		subs:      make(map[int]chan Event),
	}
	for _, kind := range cfg.Kinds {
		s.schedulers = append(s.schedulers, reminder.New(store, notifier, s.log, reminder.Config{
			Kind:          kind,
			LookaheadDays: cfg.LookaheadDays,
			Now:           cfg.Now,
			Observer:      s.recordReminder,
		}))
	}
	return s
}

// Metrics returns the service's Prometheus collectors.
func (s *Service) Metrics() *Metrics { return s.metrics }

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	return mux
}

// Run starts HTTP endpoints and the scan loop until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("daemon started",
		zap.String("addr", s.cfg.Addr),
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("lookahead_days", s.cfg.LookaheadDays),
	)

	// Scan at start so reminders are not delayed by a full interval.
	s.ScanOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.log.Info("daemon stopping")
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.ScanOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// ScanOnce runs every scheduler once and refreshes the goal status. A store
// failure in one kind is recorded and does not stop the other kinds.
func (s *Service) ScanOnce(ctx context.Context) {
	var lastErr string
	for _, sched := range s.schedulers {
		kind := sched.Kind()
		start := time.Now()
		events, err := sched.RunScan(ctx)
		s.metrics.RecordScan(string(kind), time.Since(start).Seconds(), err)

		ev := Event{Type: EventScan, Kind: kind, Count: len(events)}
		if err != nil {
			lastErr = err.Error()
			ev.Error = lastErr
		}
		s.publishEvent(ev)
	}

	goal := s.refreshGoal(ctx)

	s.mu.Lock()
	s.lastScanAt = s.cfg.Now()
	s.scanCount++
	s.lastError = lastErr
	s.goal = goal
	s.mu.Unlock()
}

func (s *Service) refreshGoal(ctx context.Context) GoalSnapshot {
	if s.goals == nil {
		return goalSnapshot(s.cfg.Period, model.StatusResult{})
	}
	res := s.goals.Status(ctx, s.cfg.Period)
	if !res.IsNone() {
		s.metrics.GoalRemainder.Set(res.Remainder.InexactFloat64())
	}
	return goalSnapshot(s.cfg.Period, res)
}

func goalSnapshot(period model.Period, res model.StatusResult) GoalSnapshot {
	snap := GoalSnapshot{Period: period, Status: res.Status, Label: res.Status.Label()}
	if res.IsNone() {
		return snap
	}
	snap.Spending = res.Spending.StringFixed(2)
	snap.Remainder = res.Remainder.StringFixed(2)
	snap.MinGoal = res.Band.MinGoal.StringFixed(2)
	snap.MaxGoal = res.Band.MaxGoal.StringFixed(2)
	return snap
}

// recordReminder is the scheduler observer; it runs once per emitted event.
func (s *Service) recordReminder(rev model.ReminderEvent, delivered bool) {
	s.metrics.RecordReminder(string(rev.Kind), delivered)

	s.mu.Lock()
	s.remindersEmitted++
	if !delivered {
		s.deliveryFailures++
	}
	s.mu.Unlock()

	s.publishEvent(Event{
		Type:      EventReminder,
		Kind:      rev.Kind,
		Reminder:  &rev,
		Delivered: delivered,
	})
}

// publishEvent assigns the next ID, appends to the ring buffer and fans out
// to stream subscribers without blocking.
func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	ev.ID = s.nextEventID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.cfg.Now()
	}

	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Status returns a copy of the current service status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:        s.startedAt,
		LastScanAt:       s.lastScanAt,
		ScanIntervalSec:  int(s.cfg.Interval.Seconds()),
		LookaheadDays:    s.cfg.LookaheadDays,
		ScanCount:        s.scanCount,
		RemindersEmitted: s.remindersEmitted,
		DeliveryFailures: s.deliveryFailures,
		Goal:             s.goal,
		LastError:        s.lastError,
		EventCount:       len(s.events),
		SubscriberCount:  len(s.subs),
	}
}

// Events returns a copy of the buffered events, oldest first.
func (s *Service) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Status())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Events())
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current goal status immediately.
	goal := s.Status().Goal
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.cfg.Now(),
		Goal:      &goal,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
