package create_booking

import (
	createBooking "github.com/m04kA/SMC-MentorBooking/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ScheduleID  int64  `json:"scheduleId"`
	Description string `json:"description"`
	Service     string `json:"service,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(customerID int64) *createBooking.Request {
	return &createBooking.Request{
		CustomerID:  customerID,
		ScheduleID:  r.ScheduleID,
		Description: r.Description,
		Service:     r.Service,
	}
}
