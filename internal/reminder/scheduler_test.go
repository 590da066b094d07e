package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/logger"
	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

type fakeStore struct {
	items map[model.Kind][]model.Obligation
	err   error
	calls int
}

func (f *fakeStore) ListActiveUnsettled(_ context.Context, kind model.Kind) ([]model.Obligation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items[kind], nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []Notification
	failOn map[int32]bool
}

func (r *recordingNotifier) Deliver(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn[n.StableID] {
		return errors.New("push service unavailable")
	}
	r.sent = append(r.sent, n)
	return nil
}

func obligation(id string, due time.Time) model.Obligation {
	return model.Obligation{
		ID:         id,
		Kind:       model.KindSubscription,
		Name:       "Streaming " + id,
		Amount:     decimal.RequireFromString("9.99"),
		DueAt:      due,
		Recurrence: model.Monthly,
		Active:     true,
	}
}

func newScheduler(store ObligationStore, n Notifier, log *zap.Logger) *Scheduler {
	return New(store, n, log, Config{
		Kind: model.KindSubscription,
		Now:  func() time.Time { return fixedNow },
	})
}

func TestScan_DueInsideWindow(t *testing.T) {
	store := &fakeStore{items: map[model.Kind][]model.Obligation{
		model.KindSubscription: {obligation("a", fixedNow.Add(48*time.Hour))},
	}}
	n := &recordingNotifier{}

	events, err := newScheduler(store, n, nil).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].DaysRemaining)
	assert.Equal(t, "a", events[0].ObligationID)
	require.Len(t, n.sent, 1)
	assert.Equal(t, events[0].NotificationID, n.sent[0].StableID)
}

func TestScan_OutsideWindow(t *testing.T) {
	store := &fakeStore{items: map[model.Kind][]model.Obligation{
		model.KindSubscription: {
			obligation("far", fixedNow.Add(10*24*time.Hour)),
			obligation("overdue", fixedNow.Add(-2*time.Hour)),
			obligation("edge", fixedNow.Add(3*24*time.Hour)),
			obligation("beyond", fixedNow.Add(4*24*time.Hour)),
		},
	}}
	n := &recordingNotifier{}

	events, err := newScheduler(store, n, nil).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "edge", events[0].ObligationID)
	assert.Equal(t, 3, events[0].DaysRemaining)
}

func TestScan_SkipsSettledAndInactive(t *testing.T) {
	settled := obligation("settled", fixedNow.Add(24*time.Hour))
	settled.Settled = true
	paused := obligation("paused", fixedNow.Add(24*time.Hour))
	paused.Active = false

	store := &fakeStore{items: map[model.Kind][]model.Obligation{
		model.KindSubscription: {settled, paused},
	}}
	n := &recordingNotifier{}

	events, err := newScheduler(store, n, nil).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, n.sent)
}

func TestScan_StableIDAcrossRuns(t *testing.T) {
	store := &fakeStore{items: map[model.Kind][]model.Obligation{
		model.KindSubscription: {obligation("a", fixedNow.Add(24*time.Hour))},
	}}
	n := &recordingNotifier{}
	s := newScheduler(store, n, nil)

	first, err := s.Scan(context.Background())
	require.NoError(t, err)
	second, err := s.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].NotificationID, second[0].NotificationID)
}

func TestScan_StoreFailureAborts(t *testing.T) {
	log, logs := logger.NewObserved()
	store := &fakeStore{err: errors.New("database is locked")}
	n := &recordingNotifier{}
	s := newScheduler(store, n, log)

	events, err := s.Scan(context.Background())
	require.Error(t, err)
	assert.Nil(t, events)
	assert.Empty(t, n.sent)

	events, err = s.RunScan(context.Background())
	require.Error(t, err)
	assert.Nil(t, events)
	assert.Equal(t, 1, logs.FilterMessage("reminder scan aborted").Len())
	assert.Empty(t, n.sent)
}

func TestScan_DeliveryFailureIsolated(t *testing.T) {
	log, logs := logger.NewObserved()
	broken := obligation("broken", fixedNow.Add(24*time.Hour))
	fine := obligation("fine", fixedNow.Add(48*time.Hour))
	store := &fakeStore{items: map[model.Kind][]model.Obligation{
		model.KindSubscription: {broken, fine},
	}}
	n := &recordingNotifier{failOn: map[int32]bool{
		NotificationID(model.KindSubscription, "broken"): true,
	}}

	var observed []bool
	s := New(store, n, log, Config{
		Kind:     model.KindSubscription,
		Now:      func() time.Time { return fixedNow },
		Observer: func(_ model.ReminderEvent, delivered bool) { observed = append(observed, delivered) },
	})

	events, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 2)
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0].Body, "Streaming fine")
	assert.Equal(t, []bool{false, true}, observed)
	assert.Equal(t, 1, logs.FilterMessage("deliver reminder failed").Len())
}

func TestScan_KindsAreIndependent(t *testing.T) {
	bill := obligation("rent", fixedNow.Add(24*time.Hour))
	bill.Kind = model.KindBill
	store := &fakeStore{items: map[model.Kind][]model.Obligation{
		model.KindBill: {bill},
	}}
	n := &recordingNotifier{}

	subs := New(store, n, nil, Config{Kind: model.KindSubscription, Now: func() time.Time { return fixedNow }})
	bills := New(store, n, nil, Config{Kind: model.KindBill, Now: func() time.Time { return fixedNow }})

	events, err := subs.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = bills.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Bill due", n.sent[0].Title)
}

func TestNew_Defaults(t *testing.T) {
	s := New(&fakeStore{}, &recordingNotifier{}, nil, Config{Kind: model.KindBill})
	assert.Equal(t, DefaultLookaheadDays, s.LookaheadDays())
	assert.Equal(t, model.KindBill, s.Kind())
}

func TestRunScan_LogsSummary(t *testing.T) {
	log, logs := logger.NewObserved()
	store := &fakeStore{items: map[model.Kind][]model.Obligation{
		model.KindSubscription: {obligation("a", fixedNow)},
	}}
	events, err := newScheduler(store, &recordingNotifier{}, log).RunScan(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	entries := logs.FilterMessage("reminder scan complete").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 1, entries[0].ContextMap()["reminders"])
	assert.Equal(t, "subscription", entries[0].ContextMap()["kind"])
}
