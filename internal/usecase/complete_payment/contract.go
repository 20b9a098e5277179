package complete_payment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	ExistsExclusive(ctx context.Context, scheduleID, excludeBookingID int64) (bool, error)
}

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Schedule, error)
	SetBooked(ctx context.Context, id int64, booked bool) error
}

// PaymentRepository интерфейс платёжных записей
type PaymentRepository interface {
	Upsert(ctx context.Context, payment *domain.PaymentHistory) (*domain.PaymentHistory, error)
}

// HistoryRepository интерфейс журнала бронирований
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.History) (*domain.History, error)
}

// RefundPublisher передаёт запрос на возврат платёжной подсистеме
type RefundPublisher interface {
	PublishRefund(ctx context.Context, req *domain.RefundRequest) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
