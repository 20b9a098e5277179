package create_booking

import (
	"errors"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = domain.NewError(domain.ErrValidation, "create_booking: invalid input data")

	// ErrScheduleNotFound возвращается, когда расписание не найдено или удалено
	ErrScheduleNotFound = domain.NewError(domain.ErrNotFound, "create_booking: schedule not found")

	// ErrSelfBooking возвращается, когда ментор пытается забронировать своё же расписание
	ErrSelfBooking = domain.NewError(domain.ErrValidation, "create_booking: mentor cannot book own schedule")

	// ErrScheduleInPast возвращается, когда дата расписания уже прошла
	ErrScheduleInPast = domain.NewError(domain.ErrValidation, "create_booking: schedule date is in the past")

	// ErrSlotAlreadyBooked возвращается, когда расписание уже занято оплаченным бронированием
	ErrSlotAlreadyBooked = domain.NewError(domain.ErrConflict, "create_booking: slot already booked")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
