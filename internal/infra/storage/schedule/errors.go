package schedule

import "errors"

var (
	// ErrScheduleNotFound возвращается, когда расписание не найдено или удалено
	ErrScheduleNotFound = errors.New("schedule.repository: schedule not found")

	// ErrUnknownTimeSlot возвращается, когда к расписанию привязывается несуществующий слот
	ErrUnknownTimeSlot = errors.New("schedule.repository: unknown time slot")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("schedule.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("schedule.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("schedule.repository: failed to scan row")
)
