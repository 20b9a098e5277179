package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByCustomerID(ctx context.Context, customerID int64, status *domain.BookingStatus) ([]*domain.Booking, error)
	GetByMentorID(ctx context.Context, mentorID int64, status *domain.BookingStatus) ([]*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
}

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Schedule, error)
	SetBooked(ctx context.Context, id int64, booked bool) error
}

// HistoryRepository интерфейс журнала бронирований
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.History) (*domain.History, error)
	GetByBookingID(ctx context.Context, bookingID int64) ([]*domain.History, error)
}

// PaymentRepository интерфейс платёжных записей
type PaymentRepository interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.PaymentHistory, error)
	UpdateStatus(ctx context.Context, bookingID int64, status domain.PaymentProcess) error
}

// RefundPublisher передаёт запрос на возврат платёжной подсистеме
type RefundPublisher interface {
	PublishRefund(ctx context.Context, req *domain.RefundRequest) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// TransitionObserver считает переходы статусов
type TransitionObserver interface {
	ObserveBookingTransition(from, to string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
