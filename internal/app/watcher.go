package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"examslot-watcher/internal/alert"
	"examslot-watcher/internal/booking"
	"examslot-watcher/internal/checksum"
	"examslot-watcher/internal/observability"
	"examslot-watcher/internal/slots"
	"examslot-watcher/internal/storage"
)

var ErrTooManyFailures = errors.New("too many consecutive failed attempts")

// Searcher: операции клиента бронирования, нужные циклу (реализует *booking.Client)
type Searcher interface {
	OpenSearch(ctx context.Context) error
	FillSearchForm(ctx context.Context, criteria booking.Criteria) error
	CheckAvailability(ctx context.Context) (*slots.Result, error)
	BookSlot(ctx context.Context, index int) error
	PageURL(ctx context.Context) string
}

type WatchOptions struct {
	Criteria               booking.Criteria
	Interval               time.Duration
	JitterPct              int
	MaxAttempts            int // 0: без ограничения
	MaxConsecutiveFailures int // 0: без ограничения
	KeepWatching           bool
	AutoBook               bool
}

type RunStats struct {
	RunID         string
	Attempts      int
	Failures      int
	SlotsFound    int
	Alerts        int
	Booked        bool
	LastResult    *slots.Result
	StoppedReason string
}

type Watcher struct {
	searcher Searcher
	notifier alert.Notifier
	journal  storage.Journal
	checksum *checksum.Generator
	opts     WatchOptions
	logger   *observability.Logger

	runID string
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	rand  func() float64
}

func NewWatcher(
	s Searcher,
	n alert.Notifier,
	j storage.Journal,
	opts WatchOptions,
	logger *observability.Logger,
) *Watcher {
	if j == nil {
		j = storage.Nop{}
	}
	if n == nil {
		n = alert.Multi{}
	}
	runID := uuid.NewString()
	return &Watcher{
		searcher: s,
		notifier: n,
		journal:  j,
		checksum: checksum.NewGenerator(),
		opts:     opts,
		logger:   logger.With("run_id", runID),
		runID:    runID,
		now:      time.Now,
		sleep:    sleepCtx,
		rand:     rand.Float64,
	}
}

func (w *Watcher) RunID() string {
	return w.runID
}

// Run повторяет заполнение формы и проверку, пока не найдутся времена,
// не кончатся попытки или не отменят context
func (w *Watcher) Run(ctx context.Context) (*RunStats, error) {
	w.logger.Info("Starting watch",
		"examination_type", w.opts.Criteria.ExaminationType,
		"locations", w.opts.Criteria.Locations,
		"vehicle_type", w.opts.Criteria.VehicleType,
		"interval", w.opts.Interval.String(),
		"max_attempts", w.opts.MaxAttempts,
		"keep_watching", w.opts.KeepWatching,
	)

	stats := &RunStats{RunID: w.runID}
	consecutiveFailures := 0
	lastFingerprint := ""

	for attempt := 1; ; attempt++ {
		if w.opts.MaxAttempts > 0 && attempt > w.opts.MaxAttempts {
			stats.StoppedReason = fmt.Sprintf("reached max attempts (%d)", w.opts.MaxAttempts)
			break
		}

		w.logger.Info("Processing attempt", "attempt", attempt)
		stats.Attempts++

		record := &storage.Attempt{
			RunID:     w.runID,
			Number:    attempt,
			StartedAt: w.now(),
		}

		result, err := w.runAttempt(ctx, attempt)
		record.FinishedAt = w.now()

		if err != nil {
			if ctx.Err() != nil {
				stats.StoppedReason = "interrupted"
				w.logger.Info("Watch interrupted", "attempt", attempt)
				return stats, ctx.Err()
			}

			stats.Failures++
			consecutiveFailures++
			record.Outcome = storage.OutcomeFailed
			record.Error = err.Error()
			w.recordAttempt(ctx, record)

			w.logger.Error("Attempt failed",
				"attempt", attempt,
				"consecutive_failures", consecutiveFailures,
				"error", err.Error(),
			)

			if errors.Is(err, booking.ErrLocationNotFound) {
				stats.StoppedReason = fmt.Sprintf("location not found at attempt %d", attempt)
				return stats, err
			}
			if w.opts.MaxConsecutiveFailures > 0 && consecutiveFailures >= w.opts.MaxConsecutiveFailures {
				stats.StoppedReason = fmt.Sprintf("%d consecutive failures at attempt %d", consecutiveFailures, attempt)
				return stats, fmt.Errorf("%w: %v", ErrTooManyFailures, err)
			}
		} else {
			consecutiveFailures = 0
			stats.LastResult = result

			labels := result.Labels()
			record.SlotCount = len(result.Slots)

			if !result.Available() {
				record.Outcome = storage.OutcomeNoSlots
				w.recordAttempt(ctx, record)
				lastFingerprint = ""
			} else {
				stats.SlotsFound++
				fingerprint := w.checksum.SlotSetHash(labels)
				record.Outcome = storage.OutcomeSlotsFound
				record.Fingerprint = fingerprint
				w.recordAttempt(ctx, record)

				w.logger.Info("Slots found",
					"attempt", attempt,
					"slots", len(result.Slots),
					"fingerprint", fingerprint,
				)

				if fingerprint != lastFingerprint {
					lastFingerprint = fingerprint
					w.alert(ctx, attempt, result, fingerprint)
					stats.Alerts++
				} else {
					w.logger.Info("Slot set unchanged, alert skipped", "attempt", attempt)
				}

				if w.opts.AutoBook && len(result.Slots) > 0 {
					if err := w.searcher.BookSlot(ctx, 0); err != nil {
						w.logger.Error("Auto-booking failed", "slot", result.Slots[0].Label, "error", err.Error())
					} else {
						stats.Booked = true
						stats.StoppedReason = fmt.Sprintf("booked %q at attempt %d", result.Slots[0].Label, attempt)
						break
					}
				}

				if !w.opts.KeepWatching {
					stats.StoppedReason = fmt.Sprintf("slots found at attempt %d", attempt)
					break
				}
			}
		}

		if w.opts.MaxAttempts > 0 && attempt >= w.opts.MaxAttempts {
			stats.StoppedReason = fmt.Sprintf("reached max attempts (%d)", w.opts.MaxAttempts)
			break
		}

		delay := w.nextDelay()
		w.logger.Info("Waiting before next attempt", "attempt", attempt, "delay", delay.String())
		if err := w.sleep(ctx, delay); err != nil {
			stats.StoppedReason = "interrupted"
			return stats, err
		}
	}

	w.logger.Info("Watch completed",
		"attempts", stats.Attempts,
		"failures", stats.Failures,
		"slots_found", stats.SlotsFound,
		"alerts", stats.Alerts,
		"reason", stats.StoppedReason,
	)

	return stats, nil
}

// runAttempt: со второй попытки страница поиска открывается заново
func (w *Watcher) runAttempt(ctx context.Context, attempt int) (*slots.Result, error) {
	if attempt > 1 {
		if err := w.searcher.OpenSearch(ctx); err != nil {
			return nil, err
		}
	}
	if err := w.searcher.FillSearchForm(ctx, w.opts.Criteria); err != nil {
		return nil, err
	}
	return w.searcher.CheckAvailability(ctx)
}

func (w *Watcher) alert(ctx context.Context, attempt int, result *slots.Result, fingerprint string) {
	event := alert.Event{
		RunID:       w.runID,
		Attempt:     attempt,
		FoundAt:     w.now(),
		Criteria:    w.opts.Criteria,
		Slots:       result.Slots,
		Fingerprint: fingerprint,
		PageURL:     w.searcher.PageURL(ctx),
	}
	if err := w.notifier.Notify(ctx, event); err != nil {
		w.logger.Warn("Notification failed", "attempt", attempt, "error", err.Error())
	}
}

// recordAttempt: ошибка журнала не прерывает наблюдение
func (w *Watcher) recordAttempt(ctx context.Context, a *storage.Attempt) {
	if err := w.journal.RecordAttempt(ctx, a); err != nil {
		w.logger.Warn("Failed to record attempt", "attempt", a.Number, "error", err.Error())
	}
}

// nextDelay: interval ±jitterPct%
func (w *Watcher) nextDelay() time.Duration {
	base := float64(w.opts.Interval)
	jitterRange := base * float64(w.opts.JitterPct) / 100
	jitter := (w.rand() - 0.5) * 2 * jitterRange
	return time.Duration(math.Max(base+jitter, 0))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
