package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	ExistsExclusive(ctx context.Context, scheduleID, excludeBookingID int64) (bool, error)
}

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Schedule, error)
}

// HistoryRepository интерфейс журнала бронирований
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.History) (*domain.History, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// TransitionObserver учитывает переходы статусов
type TransitionObserver interface {
	ObserveBookingTransition(from, to string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
