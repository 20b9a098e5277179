package handle_booking

import (
	"context"

	"github.com/m04kA/SMC-MentorBooking/internal/service/bookings/models"
)

type BookingService interface {
	HandleBooking(ctx context.Context, req *models.HandleBookingRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
