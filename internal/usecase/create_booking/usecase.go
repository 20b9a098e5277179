package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/booking"
	scheduleRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/schedule"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	scheduleRepo ScheduleRepository
	historyRepo  HistoryRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	metrics      TransitionObserver
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	scheduleRepo ScheduleRepository,
	historyRepo HistoryRepository,
	txManager TransactionManager,
	timeProvider TimeProvider,
	metrics TransitionObserver,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		historyRepo:  historyRepo,
		txManager:    txManager,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования.
// Блокирует строку расписания в сериализуемой транзакции и повторно проверяет
// правило эксклюзивности, поэтому параллельные запросы на одно расписание выстраиваются в очередь.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: customer=%d, schedule=%d", req.CustomerID, req.ScheduleID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	var (
		result   *domain.Booking
		schedule *domain.Schedule
	)

	// 2. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Блокируем расписание (FOR UPDATE)
		var err error
		schedule, err = uc.scheduleRepo.GetByID(txCtx, req.ScheduleID)
		if err != nil {
			if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
				uc.logger.Warn("CreateBooking: schedule id=%d not found", req.ScheduleID)
				return ErrScheduleNotFound
			}
			uc.logger.Error("CreateBooking: failed to get schedule id=%d: %v", req.ScheduleID, err)
			return fmt.Errorf("%w: failed to get schedule: %w", ErrInternal, err)
		}

		// 2.2. Ментор не может бронировать сам себя
		if schedule.BelongsTo(req.CustomerID) {
			uc.logger.Warn("CreateBooking: user=%d tried to book own schedule id=%d", req.CustomerID, schedule.ID)
			return ErrSelfBooking
		}

		// 2.3. Дата расписания не должна быть в прошлом
		if domain.IsDateBefore(schedule.Date, now) {
			uc.logger.Warn("CreateBooking: schedule id=%d date %s is in the past",
				schedule.ID, schedule.Date.Format(domain.DateFormat))
			return ErrScheduleInPast
		}

		// 2.4. Повторная проверка эксклюзивности под блокировкой
		taken, err := uc.bookingRepo.ExistsExclusive(txCtx, schedule.ID, 0)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to check exclusivity for schedule id=%d: %v", schedule.ID, err)
			return fmt.Errorf("%w: failed to check exclusivity: %w", ErrInternal, err)
		}
		if taken {
			uc.logger.Warn("CreateBooking: schedule id=%d is already booked", schedule.ID)
			return ErrSlotAlreadyBooked
		}

		// 2.5. Создаём бронирование
		booking := &domain.Booking{
			ScheduleID:     schedule.ID,
			CustomerID:     req.CustomerID,
			MentorID:       schedule.MentorID,
			Status:         domain.StatusPending,
			PaymentProcess: domain.PaymentPending,
			Service:        req.Service,
			Description:    req.Description,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrExclusivityViolation) {
				return ErrSlotAlreadyBooked
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %w", ErrInternal, err)
		}

		// 2.6. Запись в журнал в той же транзакции
		if _, err := uc.historyRepo.Create(txCtx, domain.NewHistory(created.ID, req.CustomerID, domain.HistoryBookingCreated)); err != nil {
			uc.logger.Error("CreateBooking: failed to write history for booking id=%d: %v", created.ID, err)
			return fmt.Errorf("%w: failed to write history: %w", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ObserveBookingTransition("", string(domain.StatusPending))
	}
	uc.logger.Info("CreateBooking: successfully created booking id=%d", result.ID)

	return toResponse(result, schedule), nil
}

func toResponse(b *domain.Booking, s *domain.Schedule) *Response {
	slots := make([]string, 0, len(s.TimeSlots))
	for _, ts := range s.TimeSlots {
		slots = append(slots, ts.Label())
	}

	return &Response{
		ID:             b.ID,
		ScheduleID:     b.ScheduleID,
		CustomerID:     b.CustomerID,
		MentorID:       b.MentorID,
		Status:         string(b.Status),
		PaymentProcess: string(b.PaymentProcess),
		Service:        b.Service,
		Description:    b.Description,
		Date:           s.Date.Format(domain.DateFormat),
		TimeSlots:      slots,
		Price:          s.Price,
		CreatedAt:      b.CreatedAt,
	}
}
