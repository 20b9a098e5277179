package autocomplete

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	"github.com/m04kA/SMC-MentorBooking/internal/integrations/userservice"
	"github.com/m04kA/SMC-MentorBooking/internal/service/bookings"
	bookingModels "github.com/m04kA/SMC-MentorBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-MentorBooking/internal/service/schedules"
	scheduleModels "github.com/m04kA/SMC-MentorBooking/internal/service/schedules/models"
	"github.com/m04kA/SMC-MentorBooking/internal/testutil/memstore"
	"github.com/m04kA/SMC-MentorBooking/internal/usecase/complete_payment"
	"github.com/m04kA/SMC-MentorBooking/internal/usecase/create_booking"
	"github.com/m04kA/SMC-MentorBooking/pkg/clock"
	"github.com/m04kA/SMC-MentorBooking/pkg/logger"
	"github.com/m04kA/SMC-MentorBooking/pkg/redislock"
)

const (
	mentorID   = int64(20)
	customerID = int64(10)
)

var today = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

type fixture struct {
	store  *memstore.Store
	clock  *clock.Fixed
	svc    *bookings.Service
	worker *Worker
}

func newFixture(t *testing.T, now time.Time, opts ...Option) *fixture {
	t.Helper()
	store := memstore.New()
	clk := clock.NewFixed(now)
	svc := bookings.NewService(
		store.Bookings(),
		store.Schedules(),
		store.Histories(),
		store.Payments(),
		&memstore.RefundRecorder{},
		store.TxManager(),
		clk,
		nil,
		logger.NewNop(),
	)
	worker := NewWorker(store.Bookings(), store.Schedules(), svc, clk, logger.NewNop(), opts...)
	return &fixture{store: store, clock: clk, svc: svc, worker: worker}
}

// addConfirmedPaid подтверждённое оплаченное бронирование на расписание с одним слотом
func (f *fixture) addConfirmedPaid(date time.Time, startHour int) *domain.Booking {
	schedule := f.store.AddSchedule(domain.Schedule{
		MentorID:  mentorID,
		Date:      date,
		Price:     100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(startHour)}},
	})
	return f.store.AddBooking(domain.Booking{
		ScheduleID:     schedule.ID,
		CustomerID:     customerID,
		MentorID:       mentorID,
		Status:         domain.StatusConfirmed,
		PaymentProcess: domain.PaymentCompleted,
	})
}

func TestRunOnce_TimeBoundary(t *testing.T) {
	f := newFixture(t, at(today, 13, 59))
	b := f.addConfirmedPaid(today, 13) // 13:00-14:00

	res := f.worker.RunOnce(context.Background())
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, 1, res.NotDue)
	assert.Equal(t, domain.StatusConfirmed, f.store.Booking(b.ID).Status)

	f.clock.Set(at(today, 14, 1))
	res = f.worker.RunOnce(context.Background())
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, domain.StatusCompleted, f.store.Booking(b.ID).Status)
}

func TestRunOnce_DateBoundary(t *testing.T) {
	f := newFixture(t, at(today, 0, 1))
	yesterday := f.addConfirmedPaid(today.AddDate(0, 0, -1), 21)
	tomorrow := f.addConfirmedPaid(today.AddDate(0, 0, 1), 8)
	later := f.addConfirmedPaid(today, 8)

	res := f.worker.RunOnce(context.Background())
	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, 2, res.NotDue)

	assert.Equal(t, domain.StatusCompleted, f.store.Booking(yesterday.ID).Status)
	assert.Equal(t, domain.StatusConfirmed, f.store.Booking(tomorrow.ID).Status)
	assert.Equal(t, domain.StatusConfirmed, f.store.Booking(later.ID).Status)
}

func TestRunOnce_IgnoresUnpaidAndPending(t *testing.T) {
	f := newFixture(t, at(today, 23, 0))
	schedule := f.store.AddSchedule(domain.Schedule{
		MentorID: mentorID, Date: today.AddDate(0, 0, -2), Price: 100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}},
	})
	unpaid := f.store.AddBooking(domain.Booking{ScheduleID: schedule.ID, CustomerID: customerID, MentorID: mentorID,
		Status: domain.StatusConfirmed, PaymentProcess: domain.PaymentPending})
	pending := f.store.AddBooking(domain.Booking{ScheduleID: schedule.ID, CustomerID: customerID + 1, MentorID: mentorID,
		Status: domain.StatusPending, PaymentProcess: domain.PaymentCompleted})

	res := f.worker.RunOnce(context.Background())
	assert.Zero(t, res.Candidates)
	assert.Equal(t, domain.StatusConfirmed, f.store.Booking(unpaid.ID).Status)
	assert.Equal(t, domain.StatusPending, f.store.Booking(pending.ID).Status)
}

func TestRunOnce_IntegrityProblemsAreSkipped(t *testing.T) {
	f := newFixture(t, at(today, 12, 0))
	orphan := f.store.AddBooking(domain.Booking{ScheduleID: 999, CustomerID: customerID, MentorID: mentorID,
		Status: domain.StatusConfirmed, PaymentProcess: domain.PaymentCompleted})
	empty := f.store.AddSchedule(domain.Schedule{MentorID: mentorID, Date: today.AddDate(0, 0, -1), Price: 100})
	noSlots := f.store.AddBooking(domain.Booking{ScheduleID: empty.ID, CustomerID: customerID, MentorID: mentorID,
		Status: domain.StatusConfirmed, PaymentProcess: domain.PaymentCompleted})
	ok := f.addConfirmedPaid(today.AddDate(0, 0, -1), 10)

	res := f.worker.RunOnce(context.Background())
	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.Completed)

	assert.Equal(t, domain.StatusConfirmed, f.store.Booking(orphan.ID).Status)
	assert.Equal(t, domain.StatusConfirmed, f.store.Booking(noSlots.ID).Status)
	assert.Equal(t, domain.StatusCompleted, f.store.Booking(ok.ID).Status)
}

type flakyCompleter struct {
	next    Completer
	failFor int64
}

func (c flakyCompleter) AutoComplete(ctx context.Context, id int64) (bool, error) {
	if id == c.failFor {
		return false, assert.AnError
	}
	return c.next.AutoComplete(ctx, id)
}

func TestRunOnce_FailureDoesNotAbortSweep(t *testing.T) {
	f := newFixture(t, at(today, 12, 0))
	first := f.addConfirmedPaid(today.AddDate(0, 0, -1), 10)
	second := f.addConfirmedPaid(today.AddDate(0, 0, -1), 11)

	worker := NewWorker(f.store.Bookings(), f.store.Schedules(),
		flakyCompleter{next: f.svc, failFor: first.ID}, f.clock, logger.NewNop())

	res := worker.RunOnce(context.Background())
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, domain.StatusCompleted, f.store.Booking(second.ID).Status)
}

func TestRunOnce_RepeatedSweepAddsNoHistory(t *testing.T) {
	f := newFixture(t, at(today, 12, 0))
	b := f.addConfirmedPaid(today.AddDate(0, 0, -1), 10)

	assert.Equal(t, 1, f.worker.RunOnce(context.Background()).Completed)
	assert.Zero(t, f.worker.RunOnce(context.Background()).Candidates)
	assert.Len(t, f.store.History(b.ID), 1)
}

func TestRunOnce_SkipsWhenLockIsBusy(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := redislock.New(client, "test:")

	f := newFixture(t, at(today, 12, 0), WithLocker(locker, time.Minute))
	b := f.addConfirmedPaid(today.AddDate(0, 0, -1), 10)

	held, err := locker.TryLock(context.Background(), lockKey, time.Minute)
	require.NoError(t, err)

	res := f.worker.RunOnce(context.Background())
	assert.True(t, res.LockBusy)
	assert.Equal(t, domain.StatusConfirmed, f.store.Booking(b.ID).Status)

	require.NoError(t, held.Release(context.Background()))

	res = f.worker.RunOnce(context.Background())
	assert.False(t, res.LockBusy)
	assert.Equal(t, 1, res.Completed)
	assert.False(t, mr.Exists("test:"+lockKey))
}

// slowCompleter имитирует долгую обработку: каждое завершение сдвигает время Redis
type slowCompleter struct {
	next  Completer
	mr    *miniredis.Miniredis
	step  time.Duration
	onRun func()
}

func (c *slowCompleter) AutoComplete(ctx context.Context, bookingID int64) (bool, error) {
	c.mr.FastForward(c.step)
	if c.onRun != nil {
		c.onRun()
	}
	return c.next.AutoComplete(ctx, bookingID)
}

func newLockedWorker(t *testing.T, f *fixture, completer Completer, locker Locker, ttl time.Duration) *Worker {
	t.Helper()
	w := NewWorker(f.store.Bookings(), f.store.Schedules(), completer, f.clock, logger.NewNop(), WithLocker(locker, ttl))
	w.lockRefreshEvery = 1
	return w
}

func TestRunOnce_RefreshesLockOnLongSweep(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := redislock.New(client, "test:")

	f := newFixture(t, at(today, 12, 0))
	for hour := 8; hour < 12; hour++ {
		f.addConfirmedPaid(today.AddDate(0, 0, -1), hour)
	}

	completer := &slowCompleter{next: f.svc, mr: mr, step: 800 * time.Millisecond}
	// без продления ключ истёк бы уже на второй встрече
	completer.onRun = func() {
		assert.True(t, mr.Exists("test:"+lockKey))
	}
	w := newLockedWorker(t, f, completer, locker, time.Second)

	res := w.RunOnce(context.Background())
	assert.Equal(t, 4, res.Completed)
	assert.False(t, res.LockLost)
	assert.False(t, mr.Exists("test:"+lockKey))
}

func TestRunOnce_StopsWhenLockIsLost(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := redislock.New(client, "test:")

	f := newFixture(t, at(today, 12, 0))
	for hour := 8; hour < 11; hour++ {
		f.addConfirmedPaid(today.AddDate(0, 0, -1), hour)
	}

	completer := &slowCompleter{next: f.svc, mr: mr}
	// другой экземпляр перехватил ключ
	completer.onRun = func() {
		mr.Set("test:"+lockKey, "other-token")
	}
	w := newLockedWorker(t, f, completer, locker, time.Minute)

	res := w.RunOnce(context.Background())
	assert.True(t, res.LockLost)
	assert.Equal(t, 1, res.Completed)

	value, err := mr.Get("test:" + lockKey)
	require.NoError(t, err)
	assert.Equal(t, "other-token", value)
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, at(today, 12, 0), WithInterval(time.Hour))
	b := f.addConfirmedPaid(today.AddDate(0, 0, -1), 10)

	f.worker.Start(context.Background())
	require.Eventually(t, func() bool {
		return f.store.Booking(b.ID).Status == domain.StatusCompleted
	}, time.Second, 10*time.Millisecond)

	f.worker.Stop()
	f.worker.Stop()
}

type mentorDirectory struct{}

func (mentorDirectory) GetUser(_ context.Context, id int64) (*userservice.User, error) {
	if id == mentorID {
		return &userservice.User{ID: id, Role: userservice.RoleMentor}, nil
	}
	return &userservice.User{ID: id, Role: userservice.RoleCustomer}, nil
}

// Полный путь: публикация, бронирование, оплата, подтверждение, автозавершение
func TestEndToEnd_BookingLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(today, 9, 0))
	refunds := &memstore.RefundRecorder{}

	scheduleSvc := schedules.NewService(f.store.Schedules(), f.store.TimeSlots(), f.store.Bookings(),
		mentorDirectory{}, f.store.TxManager(), f.clock, logger.NewNop())
	createBooking := create_booking.NewUseCase(f.store.Bookings(), f.store.Schedules(), f.store.Histories(),
		f.store.TxManager(), f.clock, nil, logger.NewNop())
	completePayment := complete_payment.NewUseCase(f.store.Bookings(), f.store.Schedules(), f.store.Payments(),
		f.store.Histories(), refunds, f.store.TxManager(), f.clock, logger.NewNop())

	schedule, err := scheduleSvc.Create(ctx, &scheduleModels.CreateScheduleRequest{
		MentorID:    mentorID,
		Date:        today.Format(domain.DateFormat),
		TimeSlotIDs: []int64{memstore.SlotID(13)},
		Price:       100,
	})
	require.NoError(t, err)

	booking, err := createBooking.Execute(ctx, &create_booking.Request{CustomerID: customerID, ScheduleID: schedule.ID})
	require.NoError(t, err)

	_, err = completePayment.Execute(ctx, &complete_payment.Request{BookingID: booking.ID, Amount: 100, TransactionCode: "tx-e2e"})
	require.NoError(t, err)

	_, err = f.svc.HandleBooking(ctx, &bookingModels.HandleBookingRequest{BookingID: booking.ID, MentorID: mentorID, Action: "APPROVE"})
	require.NoError(t, err)

	// во время встречи ничего не происходит
	f.clock.Set(at(today, 13, 30))
	assert.Equal(t, 1, f.worker.RunOnce(ctx).NotDue)

	f.clock.Set(at(today, 14, 1))
	assert.Equal(t, 1, f.worker.RunOnce(ctx).Completed)

	stored := f.store.Booking(booking.ID)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.Equal(t, domain.PaymentCompleted, stored.PaymentProcess)

	history := f.store.History(booking.ID)
	require.Len(t, history, 3)
	assert.Equal(t, domain.HistoryBookingCreated, history[0].Description)
	assert.Equal(t, domain.HistoryBookingApproved, history[1].Description)
	assert.Equal(t, domain.HistoryBookingCompleted, history[2].Description)

	payment := f.store.Payment(booking.ID)
	require.NotNil(t, payment)
	assert.Equal(t, "tx-e2e", payment.TransactionCode)
	assert.Empty(t, refunds.Requests())
}
