package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"examslot-watcher/internal/alert"
	"examslot-watcher/internal/booking"
	"examslot-watcher/internal/observability"
	"examslot-watcher/internal/slots"
	"examslot-watcher/internal/storage"
)

type step struct {
	result *slots.Result
	err    error
}

type fakeSearcher struct {
	steps     []step
	checks    int
	openCalls int
	fillCalls int
	fillErr   error
	booked    []int
	bookErr   error
}

func (f *fakeSearcher) OpenSearch(context.Context) error {
	f.openCalls++
	return nil
}

func (f *fakeSearcher) FillSearchForm(context.Context, booking.Criteria) error {
	f.fillCalls++
	return f.fillErr
}

func (f *fakeSearcher) CheckAvailability(context.Context) (*slots.Result, error) {
	s := f.steps[len(f.steps)-1]
	if f.checks < len(f.steps) {
		s = f.steps[f.checks]
	}
	f.checks++
	return s.result, s.err
}

func (f *fakeSearcher) BookSlot(_ context.Context, index int) error {
	f.booked = append(f.booked, index)
	return f.bookErr
}

func (f *fakeSearcher) PageURL(context.Context) string {
	return "https://fp.trafikverket.se/Boka/ng/search/xYihrXpXhCRiRl/5/0/0/0"
}

type fakeNotifier struct {
	events []alert.Event
	err    error
}

func (n *fakeNotifier) Notify(_ context.Context, e alert.Event) error {
	n.events = append(n.events, e)
	return n.err
}

// MockJournal is a mock for storage.Journal
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) EnsureSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockJournal) RecordAttempt(ctx context.Context, a *storage.Attempt) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockJournal) Close() error {
	return m.Called().Error(0)
}

func noTimes() step {
	return step{result: &slots.Result{NoTimes: true}}
}

func found(labels ...string) step {
	r := &slots.Result{}
	for _, l := range labels {
		r.Slots = append(r.Slots, slots.Slot{Label: l})
	}
	return step{result: r}
}

func failed(err error) step {
	return step{err: err}
}

type harness struct {
	watcher  *Watcher
	searcher *fakeSearcher
	notifier *fakeNotifier
	journal  *MockJournal
	sleeps   []time.Duration
}

func newHarness(t *testing.T, opts WatchOptions, steps ...step) *harness {
	t.Helper()

	h := &harness{
		searcher: &fakeSearcher{steps: steps},
		notifier: &fakeNotifier{},
		journal:  new(MockJournal),
	}
	h.journal.On("RecordAttempt", mock.Anything, mock.Anything).Return(nil)

	if opts.Interval == 0 {
		opts.Interval = time.Minute
	}
	opts.Criteria = booking.Criteria{
		ExaminationType: "Körprov",
		Locations:       []string{"Järfälla"},
		VehicleType:     "Automatbil",
	}

	h.watcher = NewWatcher(h.searcher, h.notifier, h.journal, opts, observability.NewDiscardLogger())
	h.watcher.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return ctx.Err()
	}
	return h
}

func (h *harness) outcomes() []storage.Outcome {
	var out []storage.Outcome
	for _, call := range h.journal.Calls {
		if call.Method == "RecordAttempt" {
			out = append(out, call.Arguments.Get(1).(*storage.Attempt).Outcome)
		}
	}
	return out
}

func TestWatcherStopsOnFirstFind(t *testing.T) {
	h := newHarness(t, WatchOptions{}, found("tisdag 21 oktober 08:40"))

	stats, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Attempts)
	assert.Equal(t, 1, stats.SlotsFound)
	assert.Equal(t, 1, stats.Alerts)
	assert.Equal(t, "slots found at attempt 1", stats.StoppedReason)
	assert.Equal(t, 0, h.searcher.openCalls)
	assert.Empty(t, h.sleeps)

	require.Len(t, h.notifier.events, 1)
	event := h.notifier.events[0]
	assert.Equal(t, h.watcher.RunID(), event.RunID)
	assert.Equal(t, []string{"Järfälla"}, event.Criteria.Locations)
	assert.NotEmpty(t, event.Fingerprint)

	assert.Equal(t, []storage.Outcome{storage.OutcomeSlotsFound}, h.outcomes())
}

func TestWatcherRetriesUntilFound(t *testing.T) {
	h := newHarness(t, WatchOptions{}, noTimes(), noTimes(), found("onsdag 22 oktober 13:10"))

	stats, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Attempts)
	assert.Equal(t, 2, h.searcher.openCalls)
	assert.Equal(t, 3, h.searcher.fillCalls)
	assert.Equal(t, []time.Duration{time.Minute, time.Minute}, h.sleeps)
	assert.Equal(t, []storage.Outcome{
		storage.OutcomeNoSlots,
		storage.OutcomeNoSlots,
		storage.OutcomeSlotsFound,
	}, h.outcomes())
}

func TestWatcherMaxAttempts(t *testing.T) {
	h := newHarness(t, WatchOptions{MaxAttempts: 2}, noTimes())

	stats, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Attempts)
	assert.Equal(t, 0, stats.SlotsFound)
	assert.Equal(t, "reached max attempts (2)", stats.StoppedReason)
	assert.Len(t, h.sleeps, 1)
	assert.Empty(t, h.notifier.events)
}

func TestWatcherFailuresFollowSameDelay(t *testing.T) {
	h := newHarness(t, WatchOptions{},
		failed(booking.ErrOutcomeUnknown),
		failed(errors.New("click continue button: timeout")),
		found("fredag 24 oktober 09:15"),
	)

	stats, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Attempts)
	assert.Equal(t, 2, stats.Failures)
	assert.Equal(t, []time.Duration{time.Minute, time.Minute}, h.sleeps)
	assert.Equal(t, []storage.Outcome{
		storage.OutcomeFailed,
		storage.OutcomeFailed,
		storage.OutcomeSlotsFound,
	}, h.outcomes())
}

func TestWatcherTooManyFailures(t *testing.T) {
	h := newHarness(t, WatchOptions{MaxConsecutiveFailures: 2},
		failed(booking.ErrOutcomeUnknown),
		noTimes(),
		failed(booking.ErrOutcomeUnknown),
		failed(booking.ErrOutcomeUnknown),
	)

	stats, err := h.watcher.Run(context.Background())
	assert.ErrorIs(t, err, ErrTooManyFailures)
	assert.Equal(t, 4, stats.Attempts)
	assert.Equal(t, 3, stats.Failures)
	assert.Contains(t, stats.StoppedReason, "2 consecutive failures")
}

func TestWatcherStopsOnUnknownLocation(t *testing.T) {
	h := newHarness(t, WatchOptions{}, noTimes())
	h.searcher.fillErr = booking.ErrLocationNotFound

	stats, err := h.watcher.Run(context.Background())
	assert.ErrorIs(t, err, booking.ErrLocationNotFound)
	assert.Equal(t, 1, stats.Attempts)
	assert.Empty(t, h.sleeps)
}

func TestWatcherKeepWatchingAlertsOnChange(t *testing.T) {
	h := newHarness(t, WatchOptions{KeepWatching: true, MaxAttempts: 5},
		found("08:40", "13:10"),
		found("13:10", "08:40"),
		found("08:40"),
		noTimes(),
		found("08:40"),
	)

	stats, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Attempts)
	assert.Equal(t, 4, stats.SlotsFound)
	assert.Equal(t, 3, stats.Alerts)
	assert.Len(t, h.notifier.events, 3)
}

func TestWatcherAutoBook(t *testing.T) {
	h := newHarness(t, WatchOptions{AutoBook: true, KeepWatching: true}, found("tisdag 21 oktober 08:40"))

	stats, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, stats.Booked)
	assert.Equal(t, []int{0}, h.searcher.booked)
	assert.Contains(t, stats.StoppedReason, "booked")
}

func TestWatcherAutoBookFailureStillStops(t *testing.T) {
	h := newHarness(t, WatchOptions{AutoBook: true}, found("tisdag 21 oktober 08:40"))
	h.searcher.bookErr = errors.New("slot taken")

	stats, err := h.watcher.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, stats.Booked)
	assert.Equal(t, "slots found at attempt 1", stats.StoppedReason)
}

func TestWatcherInterruptedDuringWait(t *testing.T) {
	h := newHarness(t, WatchOptions{}, noTimes())

	ctx, cancel := context.WithCancel(context.Background())
	h.watcher.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	stats, err := h.watcher.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "interrupted", stats.StoppedReason)
	assert.Equal(t, 1, stats.Attempts)
}

func TestWatcherJournalAndNotifierErrorsAreNotFatal(t *testing.T) {
	h := newHarness(t, WatchOptions{}, found("tisdag 21 oktober 08:40"))
	h.journal = new(MockJournal)
	h.journal.On("RecordAttempt", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
	h.watcher.journal = h.journal
	h.notifier.err = errors.New("smtp down")

	stats, err := h.watcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Alerts)
	h.journal.AssertNumberOfCalls(t, "RecordAttempt", 1)
}

func TestNextDelayJitter(t *testing.T) {
	tests := []struct {
		name   string
		jitter int
		rnd    float64
		want   time.Duration
	}{
		{"no jitter", 0, 0.9, time.Minute},
		{"lower bound", 20, 0, 48 * time.Second},
		{"upper bound", 20, 1, 72 * time.Second},
		{"middle", 20, 0.5, time.Minute},
		{"full jitter floor", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWatcher(&fakeSearcher{}, nil, nil, WatchOptions{
				Interval:  time.Minute,
				JitterPct: tt.jitter,
			}, observability.NewDiscardLogger())
			w.rand = func() float64 { return tt.rnd }

			assert.Equal(t, tt.want, w.nextDelay())
		})
	}
}
