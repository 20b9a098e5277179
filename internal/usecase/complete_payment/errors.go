package complete_payment

import (
	"errors"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = domain.NewError(domain.ErrValidation, "complete_payment: invalid input data")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = domain.NewError(domain.ErrNotFound, "complete_payment: booking not found")

	// ErrPaymentNotPending возвращается, когда оплата уже завершилась неудачей или возвращается
	ErrPaymentNotPending = domain.NewError(domain.ErrInvalidState, "complete_payment: payment is not pending")

	// ErrSlotAlreadyBooked возвращается, когда оплата пришла за недоступное расписание.
	// К этому моменту бронирование уже отменено и запрошен возврат.
	ErrSlotAlreadyBooked = domain.NewError(domain.ErrConflict, "complete_payment: slot already booked")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("complete_payment: internal error")
)

// conflict причина, по которой оплаченное бронирование не может удерживать расписание
type conflict struct {
	reason string
}

func (c *conflict) Error() string {
	return c.reason
}

const (
	reasonBookingInactive = "booking is no longer active"
	reasonScheduleRemoved = "schedule was withdrawn by the mentor"
	reasonScheduleTaken   = "schedule is held by another paid booking"
)
