package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusRejected, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusRejected, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBookingStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}

func TestBookingStatus_IsLive(t *testing.T) {
	assert.True(t, StatusPending.IsLive())
	assert.True(t, StatusConfirmed.IsLive())
	assert.True(t, StatusCompleted.IsLive())
	assert.False(t, StatusCancelled.IsLive())
	assert.False(t, StatusRejected.IsLive())
	assert.False(t, BookingStatus("UNKNOWN").IsLive())
}

func TestPaymentProcess_CanTransitionTo(t *testing.T) {
	assert.True(t, PaymentPending.CanTransitionTo(PaymentCompleted))
	assert.True(t, PaymentPending.CanTransitionTo(PaymentFailed))
	assert.True(t, PaymentCompleted.CanTransitionTo(PaymentWaitRefund))
	assert.True(t, PaymentCompleted.CanTransitionTo(PaymentFailed))
	assert.True(t, PaymentWaitRefund.CanTransitionTo(PaymentRefunded))
	assert.False(t, PaymentPending.CanTransitionTo(PaymentRefunded))
	assert.False(t, PaymentFailed.CanTransitionTo(PaymentCompleted))
	assert.False(t, PaymentRefunded.CanTransitionTo(PaymentCompleted))
}

func TestHoldsExclusivity(t *testing.T) {
	tests := []struct {
		name    string
		status  BookingStatus
		payment PaymentProcess
		want    bool
	}{
		{"unpaid pending", StatusPending, PaymentPending, false},
		{"paid pending", StatusPending, PaymentCompleted, true},
		{"paid confirmed", StatusConfirmed, PaymentCompleted, true},
		{"paid completed", StatusCompleted, PaymentCompleted, true},
		{"confirmed unpaid", StatusConfirmed, PaymentPending, false},
		{"paid cancelled", StatusCancelled, PaymentCompleted, false},
		{"paid rejected", StatusRejected, PaymentCompleted, false},
		{"waiting refund", StatusCancelled, PaymentWaitRefund, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Status: tt.status, PaymentProcess: tt.payment}
			assert.Equal(t, tt.want, b.HoldsExclusivity())
		})
	}
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus(" confirmed ")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseBookingStatus("done")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestParsePaymentProcess(t *testing.T) {
	for _, in := range []string{"WAIT_REFUND", "wait refund", "Wait-Refund"} {
		p, err := ParsePaymentProcess(in)
		require.NoError(t, err, in)
		assert.Equal(t, PaymentWaitRefund, p)
	}

	_, err := ParsePaymentProcess("paid")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseBookingAction(t *testing.T) {
	a, err := ParseBookingAction("approve")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, a)

	_, err = ParseBookingAction("maybe")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBooking_IsParticipant(t *testing.T) {
	b := &Booking{CustomerID: 10, MentorID: 20}
	assert.True(t, b.IsParticipant(10))
	assert.True(t, b.IsParticipant(20))
	assert.False(t, b.IsParticipant(30))
}

func TestNewError_WrapsKind(t *testing.T) {
	errScheduleTaken := NewError(ErrConflict, "schedules: schedule already booked")
	wrapped := fmt.Errorf("%w: schedule_id=3", errScheduleTaken)

	assert.ErrorIs(t, wrapped, errScheduleTaken)
	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, "schedules: schedule already booked: schedule_id=3", wrapped.Error())
}
