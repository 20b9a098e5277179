package bookings

import (
	"errors"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = domain.NewError(domain.ErrNotFound, "booking not found")

	// ErrAccessDenied возвращается, когда пользователь не участник бронирования
	ErrAccessDenied = domain.NewError(domain.ErrAuthorization, "access denied")

	// ErrNotPending возвращается при попытке принять решение не по ожидающему бронированию
	ErrNotPending = domain.NewError(domain.ErrInvalidState, "booking is not pending")

	// ErrCannotCancel возвращается, когда бронирование не может быть отменено
	ErrCannotCancel = domain.NewError(domain.ErrInvalidState, "booking cannot be cancelled")

	// ErrCannotComplete возвращается, когда бронирование не подтверждено или не оплачено
	ErrCannotComplete = domain.NewError(domain.ErrInvalidState, "booking cannot be completed")

	// ErrCannotFailPayment возвращается, когда оплата уже завершена возвратом или неудачей
	ErrCannotFailPayment = domain.NewError(domain.ErrInvalidState, "payment cannot be marked failed")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = domain.NewError(domain.ErrValidation, "invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
