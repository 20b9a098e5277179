package domain

// Time slot bounds
const (
	MinSlotHour = 0
	MaxSlotHour = 23
)

// Business validation constants
const (
	MaxDescriptionLength        = 1000
	MaxCancellationReasonLength = 500
	MaxServiceLength            = 100
	MaxTimeSlotsPerSchedule     = 16
	MaxTransactionCodeLength    = 128
)

// DefaultService тип услуги, если клиент не указал другой
const DefaultService = "MENTORING"

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// History messages
const (
	HistoryBookingCreated   = "Booking created"
	HistoryBookingApproved  = "Booking approved by mentor"
	HistoryBookingRejected  = "Booking rejected by mentor"
	HistoryBookingCancelled = "Booking cancelled"
	HistoryBookingCompleted = "Booking completed automatically after the meeting ended"
	HistoryPaymentConflict  = "Payment received for an unavailable slot, refund requested"
	HistoryPaymentFailed    = "Payment failed"
)

// NonExclusiveStatuses статусы, при которых бронирование никогда не удерживает слот,
// даже если оплата прошла
var NonExclusiveStatuses = []BookingStatus{
	StatusCancelled,
	StatusRejected,
}
