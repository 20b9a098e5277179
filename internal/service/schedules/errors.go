package schedules

import (
	"errors"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

var (
	// ErrScheduleNotFound возвращается, когда расписание не найдено или удалено
	ErrScheduleNotFound = domain.NewError(domain.ErrNotFound, "schedule not found")

	// ErrMentorNotFound возвращается, когда пользователь не зарегистрирован
	ErrMentorNotFound = domain.NewError(domain.ErrNotFound, "mentor not found")

	// ErrTimeSlotNotFound возвращается, когда слота нет в справочнике
	ErrTimeSlotNotFound = domain.NewError(domain.ErrNotFound, "time slot not found")

	// ErrNotMentor возвращается, когда у пользователя нет роли ментора
	ErrNotMentor = domain.NewError(domain.ErrAuthorization, "user is not a mentor")

	// ErrAccessDenied возвращается, когда расписание принадлежит другому ментору
	ErrAccessDenied = domain.NewError(domain.ErrAuthorization, "access denied")

	// ErrScheduleTaken возвращается, когда расписание уже оплачено клиентом
	ErrScheduleTaken = domain.NewError(domain.ErrConflict, "schedule is already booked")

	// ErrScheduleOverlap возвращается, когда слоты пересекаются с другим расписанием ментора на ту же дату
	ErrScheduleOverlap = domain.NewError(domain.ErrConflict, "schedule overlaps another schedule of the mentor")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = domain.NewError(domain.ErrValidation, "invalid input data")

	// ErrDateInPast возвращается, когда дата расписания уже прошла
	ErrDateInPast = domain.NewError(domain.ErrValidation, "schedule date is in the past")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
