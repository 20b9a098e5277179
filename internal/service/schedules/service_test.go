package schedules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	"github.com/m04kA/SMC-MentorBooking/internal/integrations/userservice"
	"github.com/m04kA/SMC-MentorBooking/internal/service/schedules/models"
	"github.com/m04kA/SMC-MentorBooking/internal/testutil/memstore"
	"github.com/m04kA/SMC-MentorBooking/pkg/clock"
	"github.com/m04kA/SMC-MentorBooking/pkg/logger"
	"github.com/m04kA/SMC-MentorBooking/pkg/ptr"
)

const (
	mentorID   = int64(20)
	customerID = int64(10)
	otherID    = int64(21)
)

var today = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

type fakeUsers map[int64]*userservice.User

func (f fakeUsers) GetUser(_ context.Context, id int64) (*userservice.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, userservice.ErrUserNotFound
}

func newService(store *memstore.Store) *Service {
	users := fakeUsers{
		mentorID:   {ID: mentorID, Role: "mentor"},
		otherID:    {ID: otherID, Role: "MENTOR"},
		customerID: {ID: customerID, Role: "CUSTOMER"},
	}
	return NewService(
		store.Schedules(),
		store.TimeSlots(),
		store.Bookings(),
		users,
		store.TxManager(),
		clock.NewFixed(today),
		logger.NewNop(),
	)
}

func day(offset int) string {
	return today.AddDate(0, 0, offset).Format(domain.DateFormat)
}

func TestCreate_Success(t *testing.T) {
	store := memstore.New()

	resp, err := newService(store).Create(context.Background(), &models.CreateScheduleRequest{
		MentorID:    mentorID,
		Date:        day(0),
		TimeSlotIDs: []int64{memstore.SlotID(15), memstore.SlotID(14)},
		Price:       120,
	})
	require.NoError(t, err)

	assert.Equal(t, day(0), resp.Date)
	assert.False(t, resp.IsBooked)
	require.Len(t, resp.TimeSlots, 2)
	assert.Equal(t, "14:00-15:00", resp.TimeSlots[0].Label)

	stored := store.Schedule(resp.ID)
	require.NotNil(t, stored)
	assert.Equal(t, mentorID, stored.MentorID)
	assert.False(t, stored.IsBooked)
}

func TestCreate_Errors(t *testing.T) {
	store := memstore.New()
	store.AddSchedule(domain.Schedule{
		MentorID:  mentorID,
		Date:      today.AddDate(0, 0, 1),
		Price:     100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}, {ID: memstore.SlotID(11)}},
	})
	svc := newService(store)

	tests := []struct {
		name string
		req  *models.CreateScheduleRequest
		want error
		kind error
	}{
		{"past date", &models.CreateScheduleRequest{MentorID: mentorID, Date: day(-1), TimeSlotIDs: []int64{1}, Price: 10}, ErrDateInPast, domain.ErrValidation},
		{"bad date", &models.CreateScheduleRequest{MentorID: mentorID, Date: "18.10.2026", TimeSlotIDs: []int64{1}, Price: 10}, ErrInvalidInput, domain.ErrValidation},
		{"no slots", &models.CreateScheduleRequest{MentorID: mentorID, Date: day(1), Price: 10}, ErrInvalidInput, domain.ErrValidation},
		{"duplicate slots", &models.CreateScheduleRequest{MentorID: mentorID, Date: day(1), TimeSlotIDs: []int64{1, 1}, Price: 10}, ErrInvalidInput, domain.ErrValidation},
		{"zero price", &models.CreateScheduleRequest{MentorID: mentorID, Date: day(1), TimeSlotIDs: []int64{1}}, ErrInvalidInput, domain.ErrValidation},
		{"unknown user", &models.CreateScheduleRequest{MentorID: 404, Date: day(1), TimeSlotIDs: []int64{1}, Price: 10}, ErrMentorNotFound, domain.ErrNotFound},
		{"not a mentor", &models.CreateScheduleRequest{MentorID: customerID, Date: day(1), TimeSlotIDs: []int64{1}, Price: 10}, ErrNotMentor, domain.ErrAuthorization},
		{"unknown slot", &models.CreateScheduleRequest{MentorID: mentorID, Date: day(1), TimeSlotIDs: []int64{500}, Price: 10}, ErrTimeSlotNotFound, domain.ErrNotFound},
		{"overlap", &models.CreateScheduleRequest{MentorID: mentorID, Date: day(1), TimeSlotIDs: []int64{memstore.SlotID(11)}, Price: 10}, ErrScheduleOverlap, domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestCreate_AdjacentSlotsAndOtherMentorDoNotOverlap(t *testing.T) {
	store := memstore.New()
	store.AddSchedule(domain.Schedule{
		MentorID:  mentorID,
		Date:      today.AddDate(0, 0, 1),
		Price:     100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}},
	})
	svc := newService(store)

	_, err := svc.Create(context.Background(), &models.CreateScheduleRequest{
		MentorID: mentorID, Date: day(1), TimeSlotIDs: []int64{memstore.SlotID(11)}, Price: 100,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &models.CreateScheduleRequest{
		MentorID: otherID, Date: day(1), TimeSlotIDs: []int64{memstore.SlotID(10)}, Price: 100,
	})
	require.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	store := memstore.New()
	schedule := store.AddSchedule(domain.Schedule{
		MentorID:  mentorID,
		Date:      today.AddDate(0, 0, 1),
		Price:     100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}},
	})
	store.AddSchedule(domain.Schedule{
		MentorID:  mentorID,
		Date:      today.AddDate(0, 0, 2),
		Price:     100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(12)}},
	})
	svc := newService(store)

	resp, err := svc.Update(context.Background(), &models.UpdateScheduleRequest{
		ScheduleID:  schedule.ID,
		MentorID:    mentorID,
		TimeSlotIDs: []int64{memstore.SlotID(10), memstore.SlotID(11)},
		Price:       ptr.Ptr(200.0),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(200), resp.Price)
	assert.Len(t, store.Schedule(schedule.ID).TimeSlots, 2)

	_, err = svc.Update(context.Background(), &models.UpdateScheduleRequest{ScheduleID: schedule.ID, MentorID: otherID, Price: ptr.Ptr(1.0)})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Update(context.Background(), &models.UpdateScheduleRequest{
		ScheduleID:  schedule.ID,
		MentorID:    mentorID,
		Date:        ptr.Ptr(day(2)),
		TimeSlotIDs: []int64{memstore.SlotID(12)},
	})
	assert.ErrorIs(t, err, ErrScheduleOverlap)
	assert.Equal(t, float64(200), store.Schedule(schedule.ID).Price)
}

func TestUpdateAndDelete_TakenSchedule(t *testing.T) {
	store := memstore.New()
	schedule := store.AddSchedule(domain.Schedule{
		MentorID:  mentorID,
		Date:      today.AddDate(0, 0, 1),
		Price:     100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}},
	})
	store.AddBooking(domain.Booking{
		ScheduleID:     schedule.ID,
		CustomerID:     customerID,
		MentorID:       mentorID,
		Status:         domain.StatusPending,
		PaymentProcess: domain.PaymentCompleted,
	})
	svc := newService(store)

	_, err := svc.Update(context.Background(), &models.UpdateScheduleRequest{ScheduleID: schedule.ID, MentorID: mentorID, Price: ptr.Ptr(1.0)})
	assert.ErrorIs(t, err, ErrScheduleTaken)
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = svc.Delete(context.Background(), schedule.ID, mentorID)
	assert.ErrorIs(t, err, ErrScheduleTaken)
	assert.False(t, store.Schedule(schedule.ID).IsDeleted())
}

func TestUpdateAndDelete_ScheduleWithUnpaidBooking(t *testing.T) {
	for _, status := range []domain.BookingStatus{domain.StatusPending, domain.StatusConfirmed} {
		t.Run(string(status), func(t *testing.T) {
			store := memstore.New()
			schedule := store.AddSchedule(domain.Schedule{
				MentorID:  mentorID,
				Date:      today.AddDate(0, 0, 1),
				Price:     100,
				TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}},
			})
			// оплаты нет, правило эксклюзивности не срабатывает, но клиент уже записан на это время
			store.AddBooking(domain.Booking{
				ScheduleID:     schedule.ID,
				CustomerID:     customerID,
				MentorID:       mentorID,
				Status:         status,
				PaymentProcess: domain.PaymentPending,
			})
			svc := newService(store)

			_, err := svc.Update(context.Background(), &models.UpdateScheduleRequest{
				ScheduleID:  schedule.ID,
				MentorID:    mentorID,
				Date:        ptr.Ptr(day(5)),
				TimeSlotIDs: []int64{memstore.SlotID(20)},
			})
			assert.ErrorIs(t, err, ErrScheduleTaken)

			stored := store.Schedule(schedule.ID)
			assert.True(t, domain.IsSameDate(stored.Date, today.AddDate(0, 0, 1)))
			require.Len(t, stored.TimeSlots, 1)
			assert.Equal(t, memstore.SlotID(10), stored.TimeSlots[0].ID)

			err = svc.Delete(context.Background(), schedule.ID, mentorID)
			assert.ErrorIs(t, err, ErrScheduleTaken)
			assert.False(t, store.Schedule(schedule.ID).IsDeleted())
		})
	}
}

func TestDelete_SoftDeletesFreeSchedule(t *testing.T) {
	store := memstore.New()
	schedule := store.AddSchedule(domain.Schedule{
		MentorID:  mentorID,
		Date:      today.AddDate(0, 0, 1),
		Price:     100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}},
	})
	// отменённое оплаченное бронирование расписание не занимает
	store.AddBooking(domain.Booking{
		ScheduleID:     schedule.ID,
		CustomerID:     customerID,
		MentorID:       mentorID,
		Status:         domain.StatusCancelled,
		PaymentProcess: domain.PaymentCompleted,
	})
	svc := newService(store)

	require.NoError(t, svc.Delete(context.Background(), schedule.ID, mentorID))
	assert.True(t, store.Schedule(schedule.ID).IsDeleted())

	err := svc.Delete(context.Background(), schedule.ID, mentorID)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestListUpcomingAndAll(t *testing.T) {
	store := memstore.New()
	past := store.AddSchedule(domain.Schedule{MentorID: mentorID, Date: today.AddDate(0, 0, -3), Price: 100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}}})
	booked := store.AddSchedule(domain.Schedule{MentorID: mentorID, Date: today.AddDate(0, 0, 2), Price: 100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}}})
	free := store.AddSchedule(domain.Schedule{MentorID: mentorID, Date: today, Price: 100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}}})
	store.AddSchedule(domain.Schedule{MentorID: otherID, Date: today, Price: 100,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(10)}}})
	store.AddBooking(domain.Booking{ScheduleID: booked.ID, CustomerID: customerID, MentorID: mentorID,
		Status: domain.StatusConfirmed, PaymentProcess: domain.PaymentCompleted})
	store.AddBooking(domain.Booking{ScheduleID: free.ID, CustomerID: customerID, MentorID: mentorID,
		Status: domain.StatusPending, PaymentProcess: domain.PaymentPending})
	svc := newService(store)

	upcoming, err := svc.ListUpcoming(context.Background(), mentorID)
	require.NoError(t, err)
	require.Len(t, upcoming.Schedules, 2)
	assert.Equal(t, free.ID, upcoming.Schedules[0].ID)
	assert.False(t, upcoming.Schedules[0].IsBooked)
	assert.Equal(t, booked.ID, upcoming.Schedules[1].ID)
	assert.True(t, upcoming.Schedules[1].IsBooked)

	all, err := svc.ListAll(context.Background(), mentorID)
	require.NoError(t, err)
	require.Len(t, all.Schedules, 3)
	assert.Equal(t, past.ID, all.Schedules[0].ID)

	flags, err := svc.IsAnyBooked(context.Background(), []int64{past.ID, booked.ID, free.ID})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{past.ID: false, booked.ID: true, free.ID: false}, flags)
}

func TestListTimeSlots(t *testing.T) {
	resp, err := newService(memstore.New()).ListTimeSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.TimeSlots, 14)
	assert.Equal(t, "SLOT_08", resp.TimeSlots[0].Code)
	assert.Equal(t, "21:00-22:00", resp.TimeSlots[13].Label)
}

type brokenCatalog struct{}

func (brokenCatalog) GetAll(_ context.Context) ([]domain.TimeSlot, error) {
	return []domain.TimeSlot{{ID: 1, StartHour: 12, EndHour: 11}}, nil
}

func (brokenCatalog) GetByIDs(_ context.Context, _ []int64) ([]domain.TimeSlot, error) {
	return []domain.TimeSlot{{ID: 1, StartHour: 12, EndHour: 11}}, nil
}

func TestCreate_InvalidCatalogSlot(t *testing.T) {
	store := memstore.New()
	svc := NewService(
		store.Schedules(),
		brokenCatalog{},
		store.Bookings(),
		fakeUsers{mentorID: {ID: mentorID, Role: "MENTOR"}},
		store.TxManager(),
		clock.NewFixed(today),
		logger.NewNop(),
	)

	_, err := svc.Create(context.Background(), &models.CreateScheduleRequest{
		MentorID:    mentorID,
		Date:        day(1),
		TimeSlotIDs: []int64{1},
		Price:       100,
	})
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
