package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/booking"
	paymentRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/payment"
	"github.com/m04kA/SMC-MentorBooking/internal/service/bookings/models"
)

// Service сервис переходов бронирования после создания:
// решение ментора, отмена, автозавершение, неуспешная оплата и чтение.
type Service struct {
	bookingRepo  BookingRepository
	scheduleRepo ScheduleRepository
	historyRepo  HistoryRepository
	paymentRepo  PaymentRepository
	refunds      RefundPublisher
	txManager    TransactionManager
	timeProvider TimeProvider
	metrics      TransitionObserver
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	scheduleRepo ScheduleRepository,
	historyRepo HistoryRepository,
	paymentRepo PaymentRepository,
	refunds RefundPublisher,
	txManager TransactionManager,
	timeProvider TimeProvider,
	metrics TransitionObserver,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		historyRepo:  historyRepo,
		paymentRepo:  paymentRepo,
		refunds:      refunds,
		txManager:    txManager,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
	}
}

// HandleBooking решение ментора по ожидающему бронированию.
// APPROVE переводит в CONFIRMED, REJECT в REJECTED; оплаченное отклонённое
// бронирование освобождает расписание и уходит на возврат.
func (s *Service) HandleBooking(ctx context.Context, req *models.HandleBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("HandleBooking: booking id=%d, mentor=%d, action=%s", req.BookingID, req.MentorID, req.Action)

	action, err := domain.ParseBookingAction(req.Action)
	if err != nil {
		s.logger.Warn("HandleBooking: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	reason := strings.TrimSpace(req.Reason)
	if len(reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason must be at most %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	var (
		result *domain.Booking
		refund *domain.RefundRequest
	)

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		refund = nil

		booking, err := s.getBooking(txCtx, "HandleBooking", req.BookingID)
		if err != nil {
			return err
		}

		if booking.MentorID != req.MentorID {
			s.logger.Warn("HandleBooking: user=%d is not the mentor of booking id=%d", req.MentorID, booking.ID)
			return ErrAccessDenied
		}
		if booking.Status != domain.StatusPending {
			s.logger.Warn("HandleBooking: booking id=%d is %s", booking.ID, booking.Status)
			return fmt.Errorf("%w: current status %s", ErrNotPending, booking.Status)
		}

		var description string
		switch action {
		case domain.ActionApprove:
			booking.Status = domain.StatusConfirmed
			if req.LinkMeeting != nil {
				link := strings.TrimSpace(*req.LinkMeeting)
				booking.LinkMeeting = &link
			}
			description = domain.HistoryBookingApproved
		case domain.ActionReject:
			refund, err = s.release(txCtx, "HandleBooking", booking, domain.StatusRejected, reason)
			if err != nil {
				return err
			}
			description = domain.HistoryBookingRejected
			if reason != "" {
				booking.Comment = &reason
				description = fmt.Sprintf("%s: %s", description, reason)
			}
		}

		if err := s.bookingRepo.Update(txCtx, booking); err != nil {
			return s.updateError("HandleBooking", booking.ID, err)
		}

		if _, err := s.historyRepo.Create(txCtx, domain.NewHistory(booking.ID, req.MentorID, description)); err != nil {
			return fmt.Errorf("%w: HandleBooking - write history: %w", ErrInternal, err)
		}

		result = booking
		return nil
	})
	if err != nil {
		s.logUnexpected("HandleBooking", req.BookingID, err)
		return nil, err
	}

	s.observe(domain.StatusPending, result.Status)
	s.publishRefund(ctx, "HandleBooking", refund)

	s.logger.Info("HandleBooking: booking id=%d is now %s", result.ID, result.Status)
	return models.FromDomainBooking(result, nil), nil
}

// Cancel отменяет бронирование. Отменить может клиент или ментор,
// оплаченное бронирование освобождает расписание и уходит на возврат.
func (s *Service) Cancel(ctx context.Context, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by user=%d", req.BookingID, req.ActorID)

	reason := strings.TrimSpace(req.Reason)
	if len(reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason must be at most %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	var (
		result *domain.Booking
		from   domain.BookingStatus
		refund *domain.RefundRequest
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		refund = nil

		booking, err := s.getBooking(txCtx, "Cancel", req.BookingID)
		if err != nil {
			return err
		}

		// Проверяем права доступа
		if !booking.IsParticipant(req.ActorID) {
			s.logger.Warn("Cancel: access denied for user=%d to booking id=%d", req.ActorID, booking.ID)
			return ErrAccessDenied
		}

		// Проверяем, можно ли отменить бронирование
		if !booking.CanBeCancelled() {
			s.logger.Warn("Cancel: booking id=%d cannot be cancelled, status=%s", booking.ID, booking.Status)
			return fmt.Errorf("%w: current status %s", ErrCannotCancel, booking.Status)
		}

		from = booking.Status
		refund, err = s.release(txCtx, "Cancel", booking, domain.StatusCancelled, reason)
		if err != nil {
			return err
		}
		if reason != "" {
			booking.Comment = &reason
		}

		if err := s.bookingRepo.Update(txCtx, booking); err != nil {
			return s.updateError("Cancel", booking.ID, err)
		}

		description := domain.HistoryBookingCancelled
		if reason != "" {
			description = fmt.Sprintf("%s: %s", description, reason)
		}
		if _, err := s.historyRepo.Create(txCtx, domain.NewHistory(booking.ID, req.ActorID, description)); err != nil {
			return fmt.Errorf("%w: Cancel - write history: %w", ErrInternal, err)
		}

		result = booking
		return nil
	})
	if err != nil {
		s.logUnexpected("Cancel", req.BookingID, err)
		return nil, err
	}

	s.observe(from, result.Status)
	s.publishRefund(ctx, "Cancel", refund)

	s.logger.Info("Cancel: successfully cancelled booking id=%d, payment=%s", result.ID, result.PaymentProcess)
	return models.FromDomainBooking(result, nil), nil
}

// AutoComplete завершает подтверждённое оплаченное бронирование после встречи.
// Возвращает false, если бронирование уже завершено.
func (s *Service) AutoComplete(ctx context.Context, bookingID int64) (bool, error) {
	completed := false

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		completed = false

		booking, err := s.getBooking(txCtx, "AutoComplete", bookingID)
		if err != nil {
			return err
		}

		// параллельный прогон уже завершил бронирование
		if booking.Status == domain.StatusCompleted {
			return nil
		}
		if booking.Status != domain.StatusConfirmed || booking.PaymentProcess != domain.PaymentCompleted {
			return fmt.Errorf("%w: status=%s payment=%s", ErrCannotComplete, booking.Status, booking.PaymentProcess)
		}

		booking.Status = domain.StatusCompleted
		if err := s.bookingRepo.Update(txCtx, booking); err != nil {
			return s.updateError("AutoComplete", booking.ID, err)
		}

		if _, err := s.historyRepo.Create(txCtx, domain.NewSystemHistory(booking.ID, domain.HistoryBookingCompleted)); err != nil {
			return fmt.Errorf("%w: AutoComplete - write history: %w", ErrInternal, err)
		}

		completed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if completed {
		s.observe(domain.StatusConfirmed, domain.StatusCompleted)
		s.logger.Info("AutoComplete: booking id=%d completed", bookingID)
	}
	return completed, nil
}

// MarkPaymentFailed отмечает оплату неуспешной. Если бронирование удерживало
// расписание, расписание снова становится доступным.
func (s *Service) MarkPaymentFailed(ctx context.Context, req *models.MarkPaymentFailedRequest) (*models.BookingResponse, error) {
	s.logger.Info("MarkPaymentFailed: booking id=%d", req.BookingID)

	var result *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.getBooking(txCtx, "MarkPaymentFailed", req.BookingID)
		if err != nil {
			return err
		}

		if !booking.PaymentProcess.CanTransitionTo(domain.PaymentFailed) {
			s.logger.Warn("MarkPaymentFailed: booking id=%d payment is %s", booking.ID, booking.PaymentProcess)
			return fmt.Errorf("%w: payment is %s", ErrCannotFailPayment, booking.PaymentProcess)
		}

		heldSlot := booking.HoldsExclusivity()
		booking.PaymentProcess = domain.PaymentFailed

		if err := s.bookingRepo.Update(txCtx, booking); err != nil {
			return s.updateError("MarkPaymentFailed", booking.ID, err)
		}

		if heldSlot {
			if err := s.scheduleRepo.SetBooked(txCtx, booking.ScheduleID, false); err != nil {
				return fmt.Errorf("%w: MarkPaymentFailed - release schedule: %w", ErrInternal, err)
			}
		}

		if err := s.paymentRepo.UpdateStatus(txCtx, booking.ID, domain.PaymentFailed); err != nil && !errors.Is(err, paymentRepo.ErrPaymentNotFound) {
			return fmt.Errorf("%w: MarkPaymentFailed - update payment: %w", ErrInternal, err)
		}

		description := domain.HistoryPaymentFailed
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			description = fmt.Sprintf("%s: %s", description, reason)
		}
		if _, err := s.historyRepo.Create(txCtx, domain.NewSystemHistory(booking.ID, description)); err != nil {
			return fmt.Errorf("%w: MarkPaymentFailed - write history: %w", ErrInternal, err)
		}

		result = booking
		return nil
	})
	if err != nil {
		s.logUnexpected("MarkPaymentFailed", req.BookingID, err)
		return nil, err
	}

	s.logger.Info("MarkPaymentFailed: booking id=%d payment marked failed", result.ID)
	return models.FromDomainBooking(result, nil), nil
}

// GetByID получает бронирование вместе с журналом и оплатой.
// Видеть бронирование могут только клиент и ментор.
func (s *Service) GetByID(ctx context.Context, bookingID int64, userID int64) (*models.BookingDetailsResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", bookingID, userID)

	var resp *models.BookingDetailsResponse

	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		booking, err := s.getBooking(txCtx, "GetByID", bookingID)
		if err != nil {
			return err
		}

		if !booking.IsParticipant(userID) {
			s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, bookingID)
			return ErrAccessDenied
		}

		schedules, err := s.scheduleRepo.GetByIDs(txCtx, []int64{booking.ScheduleID})
		if err != nil {
			return fmt.Errorf("%w: GetByID - get schedule: %w", ErrInternal, err)
		}

		history, err := s.historyRepo.GetByBookingID(txCtx, booking.ID)
		if err != nil {
			return fmt.Errorf("%w: GetByID - get history: %w", ErrInternal, err)
		}

		payment, err := s.paymentRepo.GetByBookingID(txCtx, booking.ID)
		if err != nil {
			if !errors.Is(err, paymentRepo.ErrPaymentNotFound) {
				return fmt.Errorf("%w: GetByID - get payment: %w", ErrInternal, err)
			}
			payment = nil
		}

		schedule := schedules[booking.ScheduleID]
		resp = &models.BookingDetailsResponse{
			BookingResponse: *models.FromDomainBooking(booking, schedule),
			Payment:         models.FromDomainPayment(payment),
			History:         models.FromDomainHistory(history),
		}
		if schedule != nil {
			resp.Price = schedule.Price
		}
		return nil
	})
	if err != nil {
		s.logUnexpected("GetByID", bookingID, err)
		return nil, err
	}

	s.logger.Info("GetByID: successfully fetched booking id=%d", bookingID)
	return resp, nil
}

// GetUserBookings бронирования пользователя как клиента или как ментора, новые первыми
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, asMentor=%t, status=%v", req.UserID, req.AsMentor, req.Status)

	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		domainStatus = &status
	}

	var (
		list []*domain.Booking
		err  error
	)
	if req.AsMentor {
		list, err = s.bookingRepo.GetByMentorID(ctx, req.UserID, domainStatus)
	} else {
		list, err = s.bookingRepo.GetByCustomerID(ctx, req.UserID, domainStatus)
	}
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %w", ErrInternal, err)
	}

	ids := make([]int64, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ScheduleID)
	}
	schedules, err := s.scheduleRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("GetUserBookings: failed to load schedules for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - get schedules: %w", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(list), req.UserID)
	return models.FromDomainBookingList(list, schedules), nil
}

// Вспомогательные методы

// release переводит бронирование в status. Если оплата прошла, оплата уходит
// в WAIT_REFUND, расписание освобождается и возвращается запрос на возврат.
func (s *Service) release(ctx context.Context, op string, booking *domain.Booking, status domain.BookingStatus, reason string) (*domain.RefundRequest, error) {
	heldSlot := booking.HoldsExclusivity()
	booking.Status = status

	if booking.PaymentProcess != domain.PaymentCompleted {
		return nil, nil
	}
	booking.PaymentProcess = domain.PaymentWaitRefund

	if heldSlot {
		if err := s.scheduleRepo.SetBooked(ctx, booking.ScheduleID, false); err != nil {
			return nil, fmt.Errorf("%w: %s - release schedule: %w", ErrInternal, op, err)
		}
	}

	refund := &domain.RefundRequest{
		BookingID:   booking.ID,
		ScheduleID:  booking.ScheduleID,
		CustomerID:  booking.CustomerID,
		Reason:      reason,
		RequestedAt: s.timeProvider.Now(),
	}

	payment, err := s.paymentRepo.GetByBookingID(ctx, booking.ID)
	switch {
	case err == nil:
		refund.Amount = payment.Amount
		refund.TransactionCode = payment.TransactionCode
		if err := s.paymentRepo.UpdateStatus(ctx, booking.ID, domain.PaymentWaitRefund); err != nil {
			return nil, fmt.Errorf("%w: %s - update payment: %w", ErrInternal, op, err)
		}
	case errors.Is(err, paymentRepo.ErrPaymentNotFound):
		s.logger.Warn("%s: paid booking id=%d has no payment record", op, booking.ID)
	default:
		return nil, fmt.Errorf("%w: %s - get payment: %w", ErrInternal, op, err)
	}

	return refund, nil
}

func (s *Service) getBooking(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: %s - get booking: %w", ErrInternal, op, err)
	}
	return booking, nil
}

func (s *Service) updateError(op string, id int64, err error) error {
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		return ErrBookingNotFound
	}
	return fmt.Errorf("%w: %s - update booking id=%d: %w", ErrInternal, op, id, err)
}

func (s *Service) publishRefund(ctx context.Context, op string, refund *domain.RefundRequest) {
	if refund == nil {
		return
	}
	if err := s.refunds.PublishRefund(ctx, refund); err != nil {
		// бронирование уже в WAIT_REFUND, платёжная подсистема увидит его при сверке
		s.logger.Error("%s: failed to publish refund for booking id=%d: %v", op, refund.BookingID, err)
		return
	}
	s.logger.Info("%s: refund %s requested for booking id=%d", op, refund.ID, refund.BookingID)
}

func (s *Service) observe(from, to domain.BookingStatus) {
	if s.metrics != nil {
		s.metrics.ObserveBookingTransition(string(from), string(to))
	}
}

func (s *Service) logUnexpected(op string, id int64, err error) {
	if errors.Is(err, ErrInternal) {
		s.logger.Error("%s: booking id=%d: %v", op, id, err)
	}
}
