package payment_callback

import (
	"context"

	"github.com/m04kA/SMC-MentorBooking/internal/service/bookings/models"
	completePayment "github.com/m04kA/SMC-MentorBooking/internal/usecase/complete_payment"
)

type CompletePaymentUseCase interface {
	Execute(ctx context.Context, req *completePayment.Request) (*completePayment.Response, error)
}

type BookingService interface {
	MarkPaymentFailed(ctx context.Context, req *models.MarkPaymentFailedRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
