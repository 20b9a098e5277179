package bookings

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	"github.com/m04kA/SMC-MentorBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-MentorBooking/internal/testutil/memstore"
	"github.com/m04kA/SMC-MentorBooking/pkg/clock"
	"github.com/m04kA/SMC-MentorBooking/pkg/logger"
	"github.com/m04kA/SMC-MentorBooking/pkg/ptr"
)

const (
	mentorID   = int64(20)
	customerID = int64(10)
	strangerID = int64(99)
)

var today = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memstore.Store
	refunds  *memstore.RefundRecorder
	svc      *Service
	schedule *domain.Schedule
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	refunds := &memstore.RefundRecorder{}
	svc := NewService(
		store.Bookings(),
		store.Schedules(),
		store.Histories(),
		store.Payments(),
		refunds,
		store.TxManager(),
		clock.NewFixed(today),
		nil,
		logger.NewNop(),
	)
	schedule := store.AddSchedule(domain.Schedule{
		MentorID:  mentorID,
		Date:      today.AddDate(0, 0, 2),
		Price:     150,
		TimeSlots: []domain.TimeSlot{{ID: memstore.SlotID(14)}, {ID: memstore.SlotID(15)}},
	})
	return &fixture{store: store, refunds: refunds, svc: svc, schedule: schedule}
}

func (f *fixture) addBooking(status domain.BookingStatus, payment domain.PaymentProcess) *domain.Booking {
	return f.store.AddBooking(domain.Booking{
		ScheduleID:     f.schedule.ID,
		CustomerID:     customerID,
		MentorID:       mentorID,
		Status:         status,
		PaymentProcess: payment,
		Service:        domain.DefaultService,
	})
}

// addPaid оплаченное бронирование, удерживающее расписание
func (f *fixture) addPaid(t *testing.T, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	b := f.addBooking(status, domain.PaymentCompleted)
	require.NoError(t, f.store.Schedules().SetBooked(context.Background(), f.schedule.ID, true))
	_, err := f.store.Payments().Upsert(context.Background(), &domain.PaymentHistory{
		BookingID:       b.ID,
		Amount:          150,
		TransactionCode: "tx-1",
		Status:          domain.PaymentCompleted,
	})
	require.NoError(t, err)
	return b
}

func TestHandleBooking_Approve(t *testing.T) {
	f := newFixture(t)
	b := f.addBooking(domain.StatusPending, domain.PaymentPending)

	resp, err := f.svc.HandleBooking(context.Background(), &models.HandleBookingRequest{
		BookingID:   b.ID,
		MentorID:    mentorID,
		Action:      "approve",
		LinkMeeting: ptr.Ptr("https://meet.example/abc"),
	})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)

	stored := f.store.Booking(b.ID)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	require.NotNil(t, stored.LinkMeeting)
	assert.Equal(t, "https://meet.example/abc", *stored.LinkMeeting)

	history := f.store.History(b.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.HistoryBookingApproved, history[0].Description)
	assert.Equal(t, mentorID, *history[0].CreatedBy)
}

func TestHandleBooking_RejectPaidRequestsRefund(t *testing.T) {
	f := newFixture(t)
	b := f.addPaid(t, domain.StatusPending)

	_, err := f.svc.HandleBooking(context.Background(), &models.HandleBookingRequest{
		BookingID: b.ID,
		MentorID:  mentorID,
		Action:    "REJECT",
		Reason:    "not my topic",
	})
	require.NoError(t, err)

	stored := f.store.Booking(b.ID)
	assert.Equal(t, domain.StatusRejected, stored.Status)
	assert.Equal(t, domain.PaymentWaitRefund, stored.PaymentProcess)
	require.NotNil(t, stored.Comment)
	assert.Equal(t, "not my topic", *stored.Comment)
	assert.False(t, f.store.Schedule(f.schedule.ID).IsBooked)
	assert.Equal(t, domain.PaymentWaitRefund, f.store.Payment(b.ID).Status)

	history := f.store.History(b.ID)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Description, "not my topic")

	refunds := f.refunds.Requests()
	require.Len(t, refunds, 1)
	assert.Equal(t, float64(150), refunds[0].Amount)
	assert.Equal(t, "tx-1", refunds[0].TransactionCode)
}

func TestHandleBooking_RejectWithoutReason(t *testing.T) {
	f := newFixture(t)
	b := f.addBooking(domain.StatusPending, domain.PaymentPending)

	resp, err := f.svc.HandleBooking(context.Background(), &models.HandleBookingRequest{
		BookingID: b.ID,
		MentorID:  mentorID,
		Action:    "reject",
	})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", resp.Status)

	stored := f.store.Booking(b.ID)
	assert.Equal(t, domain.StatusRejected, stored.Status)
	assert.Equal(t, domain.PaymentPending, stored.PaymentProcess)
	assert.Nil(t, stored.Comment)

	history := f.store.History(b.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.HistoryBookingRejected, history[0].Description)
	assert.Empty(t, f.refunds.Requests())
}

func TestHandleBooking_Errors(t *testing.T) {
	f := newFixture(t)
	pending := f.addBooking(domain.StatusPending, domain.PaymentPending)
	confirmed := f.addBooking(domain.StatusConfirmed, domain.PaymentPending)

	tests := []struct {
		name string
		req  *models.HandleBookingRequest
		want error
		kind error
	}{
		{"unknown action", &models.HandleBookingRequest{BookingID: pending.ID, MentorID: mentorID, Action: "MAYBE"}, ErrInvalidInput, domain.ErrValidation},
		{"reason too long", &models.HandleBookingRequest{BookingID: pending.ID, MentorID: mentorID, Action: "REJECT", Reason: strings.Repeat("x", domain.MaxCancellationReasonLength+1)}, ErrInvalidInput, domain.ErrValidation},
		{"not the mentor", &models.HandleBookingRequest{BookingID: pending.ID, MentorID: customerID, Action: "APPROVE"}, ErrAccessDenied, domain.ErrAuthorization},
		{"not pending", &models.HandleBookingRequest{BookingID: confirmed.ID, MentorID: mentorID, Action: "APPROVE"}, ErrNotPending, domain.ErrInvalidState},
		{"unknown booking", &models.HandleBookingRequest{BookingID: 999, MentorID: mentorID, Action: "APPROVE"}, ErrBookingNotFound, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.HandleBooking(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	assert.Equal(t, domain.StatusPending, f.store.Booking(pending.ID).Status)
	assert.Empty(t, f.store.History(pending.ID))
}

func TestCancel_PaidBookingReopensSchedule(t *testing.T) {
	f := newFixture(t)
	b := f.addPaid(t, domain.StatusConfirmed)

	taken, err := f.store.Bookings().ExistsExclusive(context.Background(), f.schedule.ID, 0)
	require.NoError(t, err)
	require.True(t, taken)

	resp, err := f.svc.Cancel(context.Background(), &models.CancelBookingRequest{
		BookingID: b.ID,
		ActorID:   customerID,
		Reason:    "sick",
	})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Equal(t, "WAIT_REFUND", resp.PaymentProcess)

	taken, err = f.store.Bookings().ExistsExclusive(context.Background(), f.schedule.ID, 0)
	require.NoError(t, err)
	assert.False(t, taken)
	assert.False(t, f.store.Schedule(f.schedule.ID).IsBooked)

	history := f.store.History(b.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.HistoryBookingCancelled+": sick", history[0].Description)
	assert.Equal(t, customerID, *history[0].CreatedBy)
	assert.Len(t, f.refunds.Requests(), 1)
}

func TestCancel_UnpaidByMentor(t *testing.T) {
	f := newFixture(t)
	b := f.addBooking(domain.StatusPending, domain.PaymentPending)

	_, err := f.svc.Cancel(context.Background(), &models.CancelBookingRequest{BookingID: b.ID, ActorID: mentorID})
	require.NoError(t, err)

	stored := f.store.Booking(b.ID)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
	assert.Equal(t, domain.PaymentPending, stored.PaymentProcess)
	assert.Nil(t, stored.Comment)
	assert.Empty(t, f.refunds.Requests())
}

func TestCancel_Errors(t *testing.T) {
	f := newFixture(t)
	pending := f.addBooking(domain.StatusPending, domain.PaymentPending)
	completed := f.addBooking(domain.StatusCompleted, domain.PaymentCompleted)

	_, err := f.svc.Cancel(context.Background(), &models.CancelBookingRequest{BookingID: pending.ID, ActorID: strangerID})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.Cancel(context.Background(), &models.CancelBookingRequest{BookingID: completed.ID, ActorID: customerID})
	assert.ErrorIs(t, err, ErrCannotCancel)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	assert.Equal(t, domain.StatusPending, f.store.Booking(pending.ID).Status)
}

func TestAutoComplete_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	b := f.addPaid(t, domain.StatusConfirmed)

	done, err := f.svc.AutoComplete(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = f.svc.AutoComplete(context.Background(), b.ID)
	require.NoError(t, err)
	assert.False(t, done)

	assert.Equal(t, domain.StatusCompleted, f.store.Booking(b.ID).Status)
	history := f.store.History(b.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.HistoryBookingCompleted, history[0].Description)
	assert.Nil(t, history[0].CreatedBy)
}

func TestAutoComplete_RequiresConfirmedAndPaid(t *testing.T) {
	f := newFixture(t)
	unpaid := f.addBooking(domain.StatusConfirmed, domain.PaymentPending)
	pending := f.addBooking(domain.StatusPending, domain.PaymentPending)

	for _, id := range []int64{unpaid.ID, pending.ID} {
		done, err := f.svc.AutoComplete(context.Background(), id)
		assert.ErrorIs(t, err, ErrCannotComplete)
		assert.False(t, done)
	}
}

func TestMarkPaymentFailed_ReleasesSchedule(t *testing.T) {
	f := newFixture(t)
	b := f.addPaid(t, domain.StatusConfirmed)

	resp, err := f.svc.MarkPaymentFailed(context.Background(), &models.MarkPaymentFailedRequest{BookingID: b.ID, Reason: "chargeback"})
	require.NoError(t, err)
	assert.Equal(t, "FAILED", resp.PaymentProcess)

	assert.False(t, f.store.Schedule(f.schedule.ID).IsBooked)
	assert.Equal(t, domain.PaymentFailed, f.store.Payment(b.ID).Status)

	_, err = f.svc.MarkPaymentFailed(context.Background(), &models.MarkPaymentFailedRequest{BookingID: b.ID})
	assert.ErrorIs(t, err, ErrCannotFailPayment)
}

func TestGetByID_WithHistoryAndPayment(t *testing.T) {
	f := newFixture(t)
	b := f.addPaid(t, domain.StatusPending)
	_, err := f.svc.HandleBooking(context.Background(), &models.HandleBookingRequest{BookingID: b.ID, MentorID: mentorID, Action: "APPROVE"})
	require.NoError(t, err)

	resp, err := f.svc.GetByID(context.Background(), b.ID, customerID)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.Equal(t, f.schedule.Date.Format(domain.DateFormat), resp.Date)
	assert.Equal(t, []string{"14:00-15:00", "15:00-16:00"}, resp.TimeSlots)
	assert.Equal(t, float64(150), resp.Price)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, "COMPLETED", resp.Payment.Status)
	require.Len(t, resp.History, 1)

	_, err = f.svc.GetByID(context.Background(), b.ID, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetUserBookings(t *testing.T) {
	f := newFixture(t)
	f.addBooking(domain.StatusPending, domain.PaymentPending)
	f.addBooking(domain.StatusCancelled, domain.PaymentPending)

	all, err := f.svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{UserID: customerID})
	require.NoError(t, err)
	assert.Len(t, all.Bookings, 2)

	asMentor, err := f.svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID:   mentorID,
		AsMentor: true,
		Status:   ptr.Ptr("cancelled"),
	})
	require.NoError(t, err)
	require.Len(t, asMentor.Bookings, 1)
	assert.Equal(t, "CANCELLED", asMentor.Bookings[0].Status)

	_, err = f.svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{UserID: customerID, Status: ptr.Ptr("lost")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
