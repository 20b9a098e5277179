package domain

import "time"

// History is an append-only audit entry attached to a booking
type History struct {
	ID          int64
	BookingID   int64
	Description string
	CreatedBy   *int64 // nil - системное действие (планировщик, платёжный колбэк)
	CreatedAt   time.Time
}

// NewHistory builds an entry for an action performed by actorID
func NewHistory(bookingID int64, actorID int64, description string) *History {
	return &History{
		BookingID:   bookingID,
		Description: description,
		CreatedBy:   &actorID,
	}
}

// NewSystemHistory builds an entry for an action performed by the service itself
func NewSystemHistory(bookingID int64, description string) *History {
	return &History{
		BookingID:   bookingID,
		Description: description,
	}
}

// PaymentHistory is the payment record of a booking (one per booking)
type PaymentHistory struct {
	ID              int64
	BookingID       int64
	Amount          float64
	TransactionCode string
	PaymentMethod   string
	Status          PaymentProcess

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefundRequest is the signal sent to the payment subsystem when money has to be returned
type RefundRequest struct {
	ID              string
	BookingID       int64
	ScheduleID      int64
	CustomerID      int64
	Amount          float64
	TransactionCode string
	Reason          string
	RequestedAt     time.Time
}
