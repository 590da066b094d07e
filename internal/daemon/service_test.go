package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/logger"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/reminder"

	"github.com/shopspring/decimal"
)

var now = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

type memStore struct {
	items map[model.Kind][]model.Obligation
	err   map[model.Kind]error
}

func (m memStore) ListActiveUnsettled(_ context.Context, kind model.Kind) ([]model.Obligation, error) {
	if err := m.err[kind]; err != nil {
		return nil, err
	}
	return m.items[kind], nil
}

type notifierFunc func(reminder.Notification) error

func (f notifierFunc) Deliver(_ context.Context, n reminder.Notification) error { return f(n) }

type fixedGoal struct{ res model.StatusResult }

func (g fixedGoal) Status(context.Context, model.Period) model.StatusResult {
	return g.res
}

func due(id string, kind model.Kind, in time.Duration) model.Obligation {
	return model.Obligation{
		ID:         id,
		Kind:       kind,
		Name:       id,
		Amount:     decimal.NewFromInt(10),
		DueAt:      now.Add(in),
		Recurrence: model.Monthly,
		Active:     true,
	}
}

func newTestService(t *testing.T, st memStore, n reminder.Notifier, goals GoalStatus) *Service {
	t.Helper()
	return New(Config{
		Interval:     time.Hour,
		EventsBuffer: 50,
		Now:          func() time.Time { return now },
	}, st, n, goals, nil)
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, memStore{}, notifierFunc(func(reminder.Notification) error { return nil }), nil, nil)

	s.publishEvent(Event{Type: EventScan})
	s.publishEvent(Event{Type: EventScan})
	s.publishEvent(Event{Type: EventScan})

	events := s.Events()
	if len(events) != 2 {
		t.Fatalf("events len = %d, want 2", len(events))
	}
	if events[0].ID != 2 || events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", events[0].ID, events[1].ID)
	}
}

func TestScanOnce(t *testing.T) {
	st := memStore{items: map[model.Kind][]model.Obligation{
		model.KindSubscription: {due("music", model.KindSubscription, 24*time.Hour)},
		model.KindBill:         {due("rent", model.KindBill, 48*time.Hour), due("later", model.KindBill, 30*24*time.Hour)},
	}}
	var titles []string
	n := notifierFunc(func(n reminder.Notification) error {
		titles = append(titles, n.Title)
		if n.Title == "Bill due" {
			return errors.New("webhook down")
		}
		return nil
	})
	goals := fixedGoal{res: model.StatusResult{
		Status:    model.StatusAchieved,
		Band:      model.GoalBand{MinGoal: decimal.NewFromInt(100), MaxGoal: decimal.NewFromInt(500), MonthlyIncome: decimal.NewFromInt(3000)},
		Spending:  decimal.NewFromInt(2000),
		Remainder: decimal.NewFromInt(1000),
	}}

	s := newTestService(t, st, n, goals)
	s.ScanOnce(context.Background())

	if len(titles) != 2 {
		t.Fatalf("delivered %d notifications, want 2", len(titles))
	}

	status := s.Status()
	if status.ScanCount != 1 || status.RemindersEmitted != 2 || status.DeliveryFailures != 1 {
		t.Errorf("status = %+v", status)
	}
	if status.LastError != "" {
		t.Errorf("LastError = %q", status.LastError)
	}
	if status.Goal.Status != model.StatusAchieved || status.Goal.Remainder != "1000.00" {
		t.Errorf("goal = %+v", status.Goal)
	}
	if !status.LastScanAt.Equal(now) {
		t.Errorf("LastScanAt = %s", status.LastScanAt)
	}

	var reminders, scans int
	for _, ev := range s.Events() {
		switch ev.Type {
		case EventReminder:
			reminders++
			if ev.Reminder == nil {
				t.Fatal("reminder event without payload")
			}
			if ev.Kind == model.KindBill && ev.Delivered {
				t.Error("failed bill delivery reported as delivered")
			}
		case EventScan:
			scans++
		}
	}
	if reminders != 2 || scans != 2 {
		t.Errorf("reminders = %d, scans = %d", reminders, scans)
	}
}

func TestScanOnceStoreFailure(t *testing.T) {
	st := memStore{
		items: map[model.Kind][]model.Obligation{
			model.KindSubscription: {due("music", model.KindSubscription, time.Hour)},
		},
		err: map[model.Kind]error{model.KindBill: errors.New("database is locked")},
	}
	var delivered int
	s := newTestService(t, st, notifierFunc(func(reminder.Notification) error {
		delivered++
		return nil
	}), nil)

	s.ScanOnce(context.Background())

	// the failing kind does not stop the other one
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
	status := s.Status()
	if !strings.Contains(status.LastError, "database is locked") {
		t.Errorf("LastError = %q", status.LastError)
	}
	if status.Goal.Status != model.StatusNone {
		t.Errorf("goal = %+v", status.Goal)
	}
}

func TestScanOnceLogsOncePerKind(t *testing.T) {
	log, logs := logger.NewObserved()
	st := memStore{err: map[model.Kind]error{model.KindBill: errors.New("disk I/O error")}}
	s := New(Config{Now: func() time.Time { return now }}, st,
		notifierFunc(func(reminder.Notification) error { return nil }), nil, log)

	s.ScanOnce(context.Background())

	aborted := logs.FilterMessage("reminder scan aborted").All()
	if len(aborted) != 1 || aborted[0].ContextMap()["kind"] != "bill" {
		t.Errorf("aborted logs = %+v", aborted)
	}
	if n := logs.FilterMessage("reminder scan complete").Len(); n != 1 {
		t.Errorf("complete logs = %d, want 1", n)
	}
}

func TestHTTPEndpoints(t *testing.T) {
	st := memStore{items: map[model.Kind][]model.Obligation{
		model.KindBill: {due("rent", model.KindBill, 24*time.Hour)},
	}}
	s := newTestService(t, st, notifierFunc(func(reminder.Notification) error { return nil }), nil)
	s.ScanOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body := get(t, srv.URL+"/healthz")
	if body != "ok\n" {
		t.Errorf("healthz = %q", body)
	}

	var status Status
	if err := json.Unmarshal([]byte(get(t, srv.URL+"/v1/status")), &status); err != nil {
		t.Fatal(err)
	}
	if status.RemindersEmitted != 1 || status.LookaheadDays != reminder.DefaultLookaheadDays {
		t.Errorf("status = %+v", status)
	}

	var events []Event
	if err := json.Unmarshal([]byte(get(t, srv.URL+"/v1/events")), &events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	// subscriptions scan first and find nothing
	if events[0].Type != EventScan || events[0].Kind != model.KindSubscription || events[0].Count != 0 {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Type != EventReminder || events[1].Reminder.ObligationID != "rent" {
		t.Errorf("events[1] = %+v", events[1])
	}

	metrics := get(t, srv.URL+"/metrics")
	for _, want := range []string{
		`pocketsafe_scans_total{kind="bill",result="ok"} 1`,
		`pocketsafe_reminders_total{kind="bill"} 1`,
		"pocketsafe_scan_duration_seconds",
	} {
		if !strings.Contains(metrics, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestStreamSendsSnapshotFirst(t *testing.T) {
	s := newTestService(t, memStore{}, notifierFunc(func(reminder.Notification) error { return nil }), nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	buf := make([]byte, 256)
	n, err := resp.Body.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(buf[:n]), "event: snapshot\n") {
		t.Errorf("first frame = %q", buf[:n])
	}
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test server URL
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}
