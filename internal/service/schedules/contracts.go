package schedules

import (
	"context"
	"time"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	"github.com/m04kA/SMC-MentorBooking/internal/integrations/userservice"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.Schedule) (*domain.Schedule, error)
	GetByID(ctx context.Context, id int64) (*domain.Schedule, error)
	List(ctx context.Context, filter domain.ScheduleFilter) ([]*domain.Schedule, error)
	Update(ctx context.Context, schedule *domain.Schedule) error
	SoftDelete(ctx context.Context, id int64) error
}

// TimeSlotRepository интерфейс справочника слотов
type TimeSlotRepository interface {
	GetAll(ctx context.Context) ([]domain.TimeSlot, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.TimeSlot, error)
}

// BookingRepository проверки занятости расписания
type BookingRepository interface {
	ExistsExclusive(ctx context.Context, scheduleID, excludeBookingID int64) (bool, error)
	ExistsLive(ctx context.Context, scheduleID int64) (bool, error)
	ExclusiveScheduleIDs(ctx context.Context, scheduleIDs []int64) (map[int64]bool, error)
}

// UserServiceClient интерфейс клиента для UserService
type UserServiceClient interface {
	GetUser(ctx context.Context, userID int64) (*userservice.User, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
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
