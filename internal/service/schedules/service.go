package schedules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/schedule"
	userClient "github.com/m04kA/SMC-MentorBooking/internal/integrations/userservice"
	"github.com/m04kA/SMC-MentorBooking/internal/service/schedules/models"
)

// Service сервис расписаний менторов
type Service struct {
	scheduleRepo ScheduleRepository
	timeSlotRepo TimeSlotRepository
	bookingRepo  BookingRepository
	userClient   UserServiceClient
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(
	scheduleRepo ScheduleRepository,
	timeSlotRepo TimeSlotRepository,
	bookingRepo BookingRepository,
	userClient UserServiceClient,
	txManager TransactionManager,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		timeSlotRepo: timeSlotRepo,
		bookingRepo:  bookingRepo,
		userClient:   userClient,
		txManager:    txManager,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Create публикует расписание ментора на дату
// Проверяет роль ментора в UserService, существование слотов и пересечения
// с другими расписаниями ментора на ту же дату
func (s *Service) Create(ctx context.Context, req *models.CreateScheduleRequest) (*models.ScheduleResponse, error) {
	s.logger.Info("Create: creating schedule for mentor=%d, date=%s, slots=%v", req.MentorID, req.Date, req.TimeSlotIDs)

	// 1. Валидируем входные данные
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := validateTimeSlotIDs(req.TimeSlotIDs); err != nil {
		return nil, err
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	if domain.IsDateBefore(date, s.timeProvider.Now()) {
		s.logger.Warn("Create: date %s is in the past", req.Date)
		return nil, ErrDateInPast
	}

	// 2. Проверяем, что пользователь - ментор
	if err := s.checkMentor(ctx, req.MentorID); err != nil {
		return nil, err
	}

	// 3. Загружаем слоты из справочника
	slots, err := s.resolveTimeSlots(ctx, req.TimeSlotIDs)
	if err != nil {
		return nil, err
	}

	schedule := &domain.Schedule{
		MentorID:  req.MentorID,
		Date:      domain.DateOnly(date),
		Price:     req.Price,
		TimeSlots: slots,
	}

	// 4. Проверка пересечений и вставка в одной транзакции
	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := s.checkOverlap(txCtx, schedule, 0); err != nil {
			return err
		}

		created, err := s.scheduleRepo.Create(txCtx, schedule)
		if err != nil {
			if errors.Is(err, scheduleRepo.ErrUnknownTimeSlot) {
				return ErrTimeSlotNotFound
			}
			return fmt.Errorf("%w: Create - repository error: %w", ErrInternal, err)
		}
		schedule = created
		return nil
	})
	if err != nil {
		s.logResult("Create", err)
		return nil, err
	}

	s.logger.Info("Create: successfully created schedule id=%d for mentor=%d", schedule.ID, schedule.MentorID)
	return models.FromDomainSchedule(schedule, false), nil
}

// Update изменяет дату, слоты или цену расписания.
// Занятое расписание менять нельзя.
func (s *Service) Update(ctx context.Context, req *models.UpdateScheduleRequest) (*models.ScheduleResponse, error) {
	s.logger.Info("Update: updating schedule id=%d by mentor=%d", req.ScheduleID, req.MentorID)

	var (
		newDate *time.Time
		slots   []domain.TimeSlot
	)

	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		if domain.IsDateBefore(date, s.timeProvider.Now()) {
			return nil, ErrDateInPast
		}
		newDate = &date
	}
	if req.TimeSlotIDs != nil {
		if err := validateTimeSlotIDs(req.TimeSlotIDs); err != nil {
			return nil, err
		}
		var err error
		if slots, err = s.resolveTimeSlots(ctx, req.TimeSlotIDs); err != nil {
			return nil, err
		}
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
	}

	var result *domain.Schedule

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		schedule, err := s.lockOwnFree(txCtx, "Update", req.ScheduleID, req.MentorID)
		if err != nil {
			return err
		}

		if newDate != nil {
			schedule.Date = domain.DateOnly(*newDate)
		}
		if slots != nil {
			schedule.TimeSlots = slots
		}
		if req.Price != nil {
			schedule.Price = *req.Price
		}

		if err := s.checkOverlap(txCtx, schedule, schedule.ID); err != nil {
			return err
		}

		if err := s.scheduleRepo.Update(txCtx, schedule); err != nil {
			switch {
			case errors.Is(err, scheduleRepo.ErrScheduleNotFound):
				return ErrScheduleNotFound
			case errors.Is(err, scheduleRepo.ErrUnknownTimeSlot):
				return ErrTimeSlotNotFound
			}
			return fmt.Errorf("%w: Update - repository error: %w", ErrInternal, err)
		}

		result = schedule
		return nil
	})
	if err != nil {
		s.logResult("Update", err)
		return nil, err
	}

	s.logger.Info("Update: successfully updated schedule id=%d", result.ID)
	return models.FromDomainSchedule(result, false), nil
}

// Delete снимает расписание с публикации (мягкое удаление).
// Бронирования на расписание сохраняют ссылку на него.
func (s *Service) Delete(ctx context.Context, scheduleID, mentorID int64) error {
	s.logger.Info("Delete: deleting schedule id=%d by mentor=%d", scheduleID, mentorID)

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if _, err := s.lockOwnFree(txCtx, "Delete", scheduleID, mentorID); err != nil {
			return err
		}

		if err := s.scheduleRepo.SoftDelete(txCtx, scheduleID); err != nil {
			if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
				return ErrScheduleNotFound
			}
			return fmt.Errorf("%w: Delete - repository error: %w", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		s.logResult("Delete", err)
		return err
	}

	s.logger.Info("Delete: successfully deleted schedule id=%d", scheduleID)
	return nil
}

// ListUpcoming расписания ментора начиная с сегодняшнего дня
func (s *Service) ListUpcoming(ctx context.Context, mentorID int64) (*models.ScheduleListResponse, error) {
	today := domain.DateOnly(s.timeProvider.Now())
	return s.list(ctx, "ListUpcoming", domain.ScheduleFilter{MentorID: mentorID, FromDate: &today})
}

// ListAll все неудалённые расписания ментора
func (s *Service) ListAll(ctx context.Context, mentorID int64) (*models.ScheduleListResponse, error) {
	return s.list(ctx, "ListAll", domain.ScheduleFilter{MentorID: mentorID})
}

// IsAnyBooked по каждому id сообщает, занято ли расписание по правилу эксклюзивности
func (s *Service) IsAnyBooked(ctx context.Context, scheduleIDs []int64) (map[int64]bool, error) {
	booked, err := s.bookingRepo.ExclusiveScheduleIDs(ctx, scheduleIDs)
	if err != nil {
		s.logger.Error("IsAnyBooked: repository error: %v", err)
		return nil, fmt.Errorf("%w: IsAnyBooked - repository error: %w", ErrInternal, err)
	}
	return booked, nil
}

// ListTimeSlots справочник слотов
func (s *Service) ListTimeSlots(ctx context.Context) (*models.TimeSlotListResponse, error) {
	slots, err := s.timeSlotRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error("ListTimeSlots: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListTimeSlots - repository error: %w", ErrInternal, err)
	}
	return &models.TimeSlotListResponse{TimeSlots: models.FromDomainTimeSlots(slots)}, nil
}

// Вспомогательные методы

func (s *Service) list(ctx context.Context, op string, filter domain.ScheduleFilter) (*models.ScheduleListResponse, error) {
	s.logger.Info("%s: fetching schedules for mentor=%d", op, filter.MentorID)

	list, err := s.scheduleRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("%s: repository error for mentor=%d: %v", op, filter.MentorID, err)
		return nil, fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
	}

	ids := make([]int64, 0, len(list))
	for _, sc := range list {
		ids = append(ids, sc.ID)
	}
	booked, err := s.IsAnyBooked(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := &models.ScheduleListResponse{Schedules: make([]models.ScheduleResponse, 0, len(list))}
	for _, sc := range list {
		resp.Schedules = append(resp.Schedules, *models.FromDomainSchedule(sc, booked[sc.ID]))
	}

	s.logger.Info("%s: successfully fetched %d schedules for mentor=%d", op, len(list), filter.MentorID)
	return resp, nil
}

// lockOwnFree блокирует расписание и проверяет, что оно принадлежит ментору и не занято.
// Занятым считается и расписание с живым бронированием без оплаты: клиент уже выбрал это время.
func (s *Service) lockOwnFree(ctx context.Context, op string, scheduleID, mentorID int64) (*domain.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			s.logger.Warn("%s: schedule id=%d not found", op, scheduleID)
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("%w: %s - get schedule: %w", ErrInternal, op, err)
	}

	if !schedule.BelongsTo(mentorID) {
		s.logger.Warn("%s: user=%d does not own schedule id=%d", op, mentorID, scheduleID)
		return nil, ErrAccessDenied
	}

	taken := schedule.IsBooked
	if !taken {
		taken, err = s.bookingRepo.ExistsExclusive(ctx, scheduleID, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - check exclusivity: %w", ErrInternal, op, err)
		}
	}
	if taken {
		s.logger.Warn("%s: schedule id=%d is already booked", op, scheduleID)
		return nil, ErrScheduleTaken
	}

	hasBookings, err := s.bookingRepo.ExistsLive(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - check bookings: %w", ErrInternal, op, err)
	}
	if hasBookings {
		s.logger.Warn("%s: schedule id=%d has active bookings", op, scheduleID)
		return nil, ErrScheduleTaken
	}

	return schedule, nil
}

// checkOverlap ищет живые расписания ментора на ту же дату с пересекающимися слотами
func (s *Service) checkOverlap(ctx context.Context, schedule *domain.Schedule, excludeID int64) error {
	date := schedule.Date
	sameDay, err := s.scheduleRepo.List(ctx, domain.ScheduleFilter{
		MentorID:  schedule.MentorID,
		Date:      &date,
		ExcludeID: excludeID,
	})
	if err != nil {
		return fmt.Errorf("%w: checkOverlap - repository error: %w", ErrInternal, err)
	}

	for _, other := range sameDay {
		if domain.SlotsOverlap(schedule.TimeSlots, other.TimeSlots) {
			s.logger.Warn("checkOverlap: mentor=%d schedule overlaps schedule id=%d on %s",
				schedule.MentorID, other.ID, date.Format(domain.DateFormat))
			return ErrScheduleOverlap
		}
	}
	return nil
}

func (s *Service) checkMentor(ctx context.Context, userID int64) error {
	user, err := s.userClient.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, userClient.ErrUserNotFound) {
			s.logger.Warn("checkMentor: user=%d not found", userID)
			return ErrMentorNotFound
		}
		s.logger.Error("checkMentor: failed to get user=%d: %v", userID, err)
		return fmt.Errorf("%w: checkMentor - failed to get user: %w", ErrInternal, err)
	}

	if !user.IsMentor() {
		s.logger.Warn("checkMentor: user=%d has role %s", userID, user.Role)
		return ErrNotMentor
	}
	return nil
}

func (s *Service) resolveTimeSlots(ctx context.Context, ids []int64) ([]domain.TimeSlot, error) {
	slots, err := s.timeSlotRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("resolveTimeSlots: repository error: %v", err)
		return nil, fmt.Errorf("%w: resolveTimeSlots - repository error: %w", ErrInternal, err)
	}
	if len(slots) != len(ids) {
		s.logger.Warn("resolveTimeSlots: requested %d slots, found %d", len(ids), len(slots))
		return nil, ErrTimeSlotNotFound
	}
	// битый справочник не должен попасть в расписание
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			s.logger.Error("resolveTimeSlots: catalog slot id=%d is invalid: %v", slot.ID, err)
			return nil, fmt.Errorf("%w: resolveTimeSlots - invalid catalog slot id=%d: %w", ErrInternal, slot.ID, err)
		}
	}
	domain.SortSlots(slots)
	return slots, nil
}

func (s *Service) logResult(op string, err error) {
	if errors.Is(err, ErrInternal) {
		s.logger.Error("%s: %v", op, err)
	}
}
