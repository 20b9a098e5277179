package domain

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus represents the lifecycle stage of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusRejected  BookingStatus = "REJECTED"
)

// bookingTransitions state machine of booking status
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusRejected:  {},
}

// IsValid returns true if the status is a known booking status
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo returns true if the state machine allows s -> target
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// PaymentProcess represents the payment stage of a booking, tracked orthogonally to status
type PaymentProcess string

const (
	PaymentPending    PaymentProcess = "PENDING"
	PaymentCompleted  PaymentProcess = "COMPLETED"
	PaymentRefunded   PaymentProcess = "REFUNDED"
	PaymentWaitRefund PaymentProcess = "WAIT_REFUND"
	PaymentFailed     PaymentProcess = "FAILED"
)

var paymentTransitions = map[PaymentProcess][]PaymentProcess{
	PaymentPending:    {PaymentCompleted, PaymentFailed},
	PaymentCompleted:  {PaymentWaitRefund, PaymentFailed},
	PaymentWaitRefund: {PaymentRefunded},
	PaymentRefunded:   {},
	PaymentFailed:     {},
}

// IsValid returns true if the value is a known payment process
func (p PaymentProcess) IsValid() bool {
	_, ok := paymentTransitions[p]
	return ok
}

// CanTransitionTo returns true if the payment state machine allows p -> target
func (p PaymentProcess) CanTransitionTo(target PaymentProcess) bool {
	for _, t := range paymentTransitions[p] {
		if t == target {
			return true
		}
	}
	return false
}

// BookingAction is a mentor decision on a pending booking
type BookingAction string

const (
	ActionApprove BookingAction = "APPROVE"
	ActionReject  BookingAction = "REJECT"
)

// Booking represents a customer's claim against a schedule
type Booking struct {
	ID             int64
	ScheduleID     int64
	CustomerID     int64
	MentorID       int64 // владелец расписания на момент создания бронирования
	Status         BookingStatus
	PaymentProcess PaymentProcess
	Service        string
	Description    string
	Comment        *string
	LinkMeeting    *string
	IsRead         bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HoldsExclusivity returns true if the booking blocks its schedule for everyone else
func (b *Booking) HoldsExclusivity() bool {
	return HoldsExclusivity(b.Status, b.PaymentProcess)
}

// IsParticipant returns true if userID is the customer or the mentor of the booking
func (b *Booking) IsParticipant(userID int64) bool {
	return b.CustomerID == userID || b.MentorID == userID
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status.CanTransitionTo(StatusCancelled)
}

// IsLive returns true while the booking still references its schedule:
// anything except CANCELLED and REJECTED. A live booking freezes the schedule.
func (s BookingStatus) IsLive() bool {
	for _, st := range NonExclusiveStatuses {
		if s == st {
			return false
		}
	}
	return s.IsValid()
}

// HoldsExclusivity is the anti double-booking rule: a booking takes its schedule
// only while it is paid and not cancelled or rejected.
func HoldsExclusivity(status BookingStatus, payment PaymentProcess) bool {
	if payment != PaymentCompleted {
		return false
	}
	for _, s := range NonExclusiveStatuses {
		if status == s {
			return false
		}
	}
	return true
}

// ParseBookingStatus canonicalizes an external string into a BookingStatus
func ParseBookingStatus(value string) (BookingStatus, error) {
	s := BookingStatus(canonical(value))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, value)
	}
	return s, nil
}

// ParsePaymentProcess canonicalizes an external string into a PaymentProcess
func ParsePaymentProcess(value string) (PaymentProcess, error) {
	p := PaymentProcess(canonical(value))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: unknown payment process %q", ErrValidation, value)
	}
	return p, nil
}

// ParseBookingAction canonicalizes an external string into a BookingAction
func ParseBookingAction(value string) (BookingAction, error) {
	a := BookingAction(canonical(value))
	switch a {
	case ActionApprove, ActionReject:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown booking action %q", ErrValidation, value)
	}
}

// canonical приводит "wait refund", "Wait-Refund" и т.п. к виду WAIT_REFUND
func canonical(value string) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(v)
}
