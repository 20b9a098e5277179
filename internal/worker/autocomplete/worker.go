// Package autocomplete фоновый перевод подтверждённых оплаченных бронирований
// в COMPLETED после окончания встречи.
package autocomplete

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	"github.com/m04kA/SMC-MentorBooking/pkg/redislock"
)

const (
	DefaultInterval = 5 * time.Minute
	DefaultLockTTL  = time.Minute

	lockKey = "autocomplete"

	// через столько обработанных бронирований продлевается блокировка
	defaultLockRefreshEvery = 50
)

// Результаты прогона для метрик
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultLockBusy = "lock_busy"
)

// SweepResult итог одного прогона
type SweepResult struct {
	RunID      string
	Candidates int
	Completed  int
	NotDue     int
	Skipped    int // нарушена целостность или бронирование уже завершено
	Failed     int
	LockBusy   bool
	LockLost   bool // блокировку перехватили во время прогона, прогон прерван
}

// Worker периодически завершает прошедшие встречи
type Worker struct {
	bookings  BookingRepository
	schedules ScheduleRepository
	completer Completer
	clock     Clock
	logger    Logger

	interval time.Duration
	locker   Locker
	lockTTL  time.Duration
	metrics  Metrics

	lockRefreshEvery int

	stopChan chan struct{}
	stopOnce sync.Once
	started  bool
	done     chan struct{}
}

type Option func(*Worker)

// WithInterval задаёт период прогона
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLocker включает распределённую блокировку прогона
func WithLocker(locker Locker, ttl time.Duration) Option {
	return func(w *Worker) {
		w.locker = locker
		if ttl > 0 {
			w.lockTTL = ttl
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func NewWorker(
	bookings BookingRepository,
	schedules ScheduleRepository,
	completer Completer,
	clock Clock,
	logger Logger,
	opts ...Option,
) *Worker {
	w := &Worker{
		bookings:  bookings,
		schedules: schedules,
		completer: completer,
		clock:     clock,
		logger:    logger,
		interval:  DefaultInterval,
		lockTTL:   DefaultLockTTL,
		stopChan:  make(chan struct{}),

		lockRefreshEvery: defaultLockRefreshEvery,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start запускает фоновый цикл. Первый прогон выполняется сразу.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Starting auto-completion worker, interval=%s", w.interval)
	w.started = true
	go w.run(ctx)
}

// Stop останавливает цикл и ждёт завершения текущего прогона
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping auto-completion worker")
		close(w.stopChan)
	})
	if w.started {
		<-w.done
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-w.stopChan:
			w.logger.Info("Auto-completion worker stopped")
			return
		case <-ctx.Done():
			w.logger.Info("Auto-completion worker cancelled")
			return
		}
	}
}

// RunOnce выполняет один прогон. Ошибки отдельных бронирований логируются
// и не прерывают прогон; наружу ошибка не возвращается.
func (w *Worker) RunOnce(ctx context.Context) SweepResult {
	started := time.Now()
	result := SweepResult{RunID: uuid.NewString()}

	var held *redislock.Lock
	if w.locker != nil {
		lock, err := w.locker.TryLock(ctx, lockKey, w.lockTTL)
		switch {
		case errors.Is(err, redislock.ErrNotObtained):
			w.logger.Info("Sweep %s: another instance is running, skipping", result.RunID)
			result.LockBusy = true
			w.observe(ResultLockBusy, started, result)
			return result
		case err != nil:
			// AutoComplete идемпотентен, поэтому прогон без блокировки безопасен
			w.logger.Warn("Sweep %s: failed to take lock, running without it: %v", result.RunID, err)
		default:
			held = lock
			defer func() {
				if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrNotHeld) {
					w.logger.Warn("Sweep %s: failed to release lock %s: %v", result.RunID, lock.Key(), err)
				}
			}()
		}
	}

	// один снимок времени на весь прогон
	now := w.clock.Now()

	candidates, err := w.bookings.ListByStatusAndPayment(ctx, domain.StatusConfirmed, domain.PaymentCompleted)
	if err != nil {
		w.logger.Error("Sweep %s: failed to list candidates: %v", result.RunID, err)
		w.observe(ResultError, started, result)
		return result
	}
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		w.observe(ResultOK, started, result)
		return result
	}

	ids := make([]int64, 0, len(candidates))
	for _, b := range candidates {
		ids = append(ids, b.ScheduleID)
	}
	schedules, err := w.schedules.GetByIDs(ctx, ids)
	if err != nil {
		w.logger.Error("Sweep %s: failed to load schedules: %v", result.RunID, err)
		w.observe(ResultError, started, result)
		return result
	}

	for i, b := range candidates {
		if ctx.Err() != nil {
			w.logger.Warn("Sweep %s: interrupted: %v", result.RunID, ctx.Err())
			break
		}
		if held != nil && i > 0 && i%w.lockRefreshEvery == 0 && !w.refreshLock(ctx, held, &result) {
			break
		}
		w.process(ctx, b, schedules[b.ScheduleID], now, &result)
	}

	w.logger.Info("Sweep %s: candidates=%d completed=%d notDue=%d skipped=%d failed=%d",
		result.RunID, result.Candidates, result.Completed, result.NotDue, result.Skipped, result.Failed)
	w.observe(ResultOK, started, result)
	return result
}

// refreshLock продлевает блокировку на длинном прогоне. false означает,
// что блокировку перехватил другой экземпляр и прогон надо прервать.
func (w *Worker) refreshLock(ctx context.Context, lock *redislock.Lock, result *SweepResult) bool {
	err := lock.Refresh(ctx, w.lockTTL)
	switch {
	case err == nil:
		return true
	case errors.Is(err, redislock.ErrNotHeld):
		w.logger.Warn("Sweep %s: lock %s lost, stopping", result.RunID, lock.Key())
		result.LockLost = true
		return false
	default:
		// Redis недоступен: AutoComplete идемпотентен, продолжаем
		w.logger.Warn("Sweep %s: failed to refresh lock %s: %v", result.RunID, lock.Key(), err)
		return true
	}
}

func (w *Worker) process(ctx context.Context, b *domain.Booking, schedule *domain.Schedule, now time.Time, result *SweepResult) {
	if schedule == nil {
		w.logger.Warn("Sweep %s: integrity: booking id=%d references missing schedule id=%d", result.RunID, b.ID, b.ScheduleID)
		result.Skipped++
		return
	}

	endHour, ok := schedule.EndHour()
	if !ok {
		w.logger.Warn("Sweep %s: integrity: schedule id=%d of booking id=%d has no time slots", result.RunID, schedule.ID, b.ID)
		result.Skipped++
		return
	}

	if !domain.MeetingElapsed(schedule.Date, endHour, now) {
		result.NotDue++
		return
	}

	completed, err := w.completer.AutoComplete(ctx, b.ID)
	if err != nil {
		w.logger.Error("Sweep %s: failed to complete booking id=%d: %v", result.RunID, b.ID, err)
		result.Failed++
		return
	}
	if !completed {
		result.Skipped++
		return
	}
	result.Completed++
}

func (w *Worker) observe(outcome string, started time.Time, result SweepResult) {
	if w.metrics == nil {
		return
	}
	w.metrics.ObserveSweep(outcome, time.Since(started))
	w.metrics.AddSweepBookings("completed", result.Completed)
	w.metrics.AddSweepBookings("not_due", result.NotDue)
	w.metrics.AddSweepBookings("skipped", result.Skipped)
	w.metrics.AddSweepBookings("failed", result.Failed)
}
