package autocomplete

import (
	"context"
	"time"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	"github.com/m04kA/SMC-MentorBooking/pkg/redislock"
)

// BookingRepository выборка кандидатов на завершение
type BookingRepository interface {
	ListByStatusAndPayment(ctx context.Context, status domain.BookingStatus, payment domain.PaymentProcess) ([]*domain.Booking, error)
}

// ScheduleRepository пакетная загрузка расписаний вместе со слотами
type ScheduleRepository interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Schedule, error)
}

// Completer завершает одно бронирование. false - бронирование уже было завершено.
type Completer interface {
	AutoComplete(ctx context.Context, bookingID int64) (bool, error)
}

// Clock текущее время в часовом поясе сервиса
type Clock interface {
	Now() time.Time
}

// Locker распределённая блокировка прогона между экземплярами сервиса
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (*redislock.Lock, error)
}

// Metrics метрики прогонов
type Metrics interface {
	ObserveSweep(result string, duration time.Duration)
	AddSweepBookings(outcome string, count int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
