package complete_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/booking"
	scheduleRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/schedule"
)

// UseCase фиксирует успешную оплату бронирования.
// Это вторая линия защиты от двойного бронирования: правило эксклюзивности
// проверяется заново под блокировкой бронирования и расписания.
type UseCase struct {
	bookingRepo  BookingRepository
	scheduleRepo ScheduleRepository
	paymentRepo  PaymentRepository
	historyRepo  HistoryRepository
	refunds      RefundPublisher
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

func NewUseCase(
	bookingRepo BookingRepository,
	scheduleRepo ScheduleRepository,
	paymentRepo PaymentRepository,
	historyRepo HistoryRepository,
	refunds RefundPublisher,
	txManager TransactionManager,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		paymentRepo:  paymentRepo,
		historyRepo:  historyRepo,
		refunds:      refunds,
		txManager:    txManager,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute отмечает бронирование оплаченным. Повторный вызов для оплаченного бронирования ничего не меняет.
// Если расписание уже недоступно, бронирование отменяется в отдельной транзакции,
// оплата переводится в WAIT_REFUND и запрашивается возврат.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CompletePayment: booking=%d, amount=%.2f, tx=%s", req.BookingID, req.Amount, req.TransactionCode)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CompletePayment: validation failed: %v", err)
		return nil, err
	}

	var (
		booking     *domain.Booking
		alreadyPaid bool
	)

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		var err error
		alreadyPaid = false

		// 1. Блокируем бронирование
		booking, err = uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: failed to get booking: %w", ErrInternal, err)
		}

		if booking.PaymentProcess == domain.PaymentCompleted {
			alreadyPaid = true
			return nil
		}
		if booking.PaymentProcess != domain.PaymentPending {
			return fmt.Errorf("%w: booking id=%d payment is %s", ErrPaymentNotPending, booking.ID, booking.PaymentProcess)
		}
		if booking.Status.IsTerminal() {
			return &conflict{reason: reasonBookingInactive}
		}

		// 2. Блокируем расписание
		if _, err := uc.scheduleRepo.GetByID(txCtx, booking.ScheduleID); err != nil {
			if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
				return &conflict{reason: reasonScheduleRemoved}
			}
			return fmt.Errorf("%w: failed to get schedule: %w", ErrInternal, err)
		}

		// 3. Повторная проверка эксклюзивности, исключая само бронирование
		taken, err := uc.bookingRepo.ExistsExclusive(txCtx, booking.ScheduleID, booking.ID)
		if err != nil {
			return fmt.Errorf("%w: failed to check exclusivity: %w", ErrInternal, err)
		}
		if taken {
			return &conflict{reason: reasonScheduleTaken}
		}

		// 4. Фиксируем оплату. Статус не меняется: оплата не означает подтверждения ментором.
		booking.PaymentProcess = domain.PaymentCompleted
		if err := uc.bookingRepo.Update(txCtx, booking); err != nil {
			if errors.Is(err, bookingRepo.ErrExclusivityViolation) {
				return &conflict{reason: reasonScheduleTaken}
			}
			return fmt.Errorf("%w: failed to update booking: %w", ErrInternal, err)
		}

		if err := uc.scheduleRepo.SetBooked(txCtx, booking.ScheduleID, true); err != nil {
			return fmt.Errorf("%w: failed to mark schedule booked: %w", ErrInternal, err)
		}

		if _, err := uc.paymentRepo.Upsert(txCtx, uc.paymentRecord(req, domain.PaymentCompleted)); err != nil {
			return fmt.Errorf("%w: failed to save payment: %w", ErrInternal, err)
		}

		return nil
	})

	var c *conflict
	if errors.As(err, &c) {
		uc.logger.Warn("CompletePayment: booking id=%d cannot take its schedule: %s", req.BookingID, c.reason)
		return nil, uc.compensate(ctx, req, c.reason)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidState) {
			uc.logger.Error("CompletePayment: booking id=%d: %v", req.BookingID, err)
		}
		return nil, err
	}

	if alreadyPaid {
		uc.logger.Info("CompletePayment: booking id=%d is already paid, nothing to do", booking.ID)
	} else {
		uc.logger.Info("CompletePayment: booking id=%d paid, schedule id=%d is now booked", booking.ID, booking.ScheduleID)
	}

	return &Response{
		BookingID:      booking.ID,
		Status:         string(booking.Status),
		PaymentProcess: string(booking.PaymentProcess),
		AlreadyPaid:    alreadyPaid,
	}, nil
}

// compensate отменяет бронирование, за которое пришли деньги, и запрашивает возврат.
// Переход PENDING -> WAIT_REFUND в обход таблицы переходов оплаты допустим только здесь.
func (uc *UseCase) compensate(ctx context.Context, req *Request, reason string) error {
	var refund *domain.RefundRequest

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		refund = nil

		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			return fmt.Errorf("%w: compensation - get booking: %w", ErrInternal, err)
		}

		// параллельный колбэк уже всё сделал
		if booking.PaymentProcess == domain.PaymentWaitRefund || booking.PaymentProcess == domain.PaymentRefunded {
			return nil
		}

		if !booking.Status.IsTerminal() {
			booking.Status = domain.StatusCancelled
		}
		booking.PaymentProcess = domain.PaymentWaitRefund

		if err := uc.bookingRepo.Update(txCtx, booking); err != nil {
			return fmt.Errorf("%w: compensation - update booking: %w", ErrInternal, err)
		}

		if _, err := uc.paymentRepo.Upsert(txCtx, uc.paymentRecord(req, domain.PaymentWaitRefund)); err != nil {
			return fmt.Errorf("%w: compensation - save payment: %w", ErrInternal, err)
		}

		entry := domain.NewSystemHistory(booking.ID, fmt.Sprintf("%s: %s", domain.HistoryPaymentConflict, reason))
		if _, err := uc.historyRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("%w: compensation - write history: %w", ErrInternal, err)
		}

		refund = &domain.RefundRequest{
			BookingID:       booking.ID,
			ScheduleID:      booking.ScheduleID,
			CustomerID:      booking.CustomerID,
			Amount:          req.Amount,
			TransactionCode: req.TransactionCode,
			Reason:          reason,
			RequestedAt:     uc.timeProvider.Now(),
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("CompletePayment: compensation failed for booking id=%d: %v", req.BookingID, err)
		return err
	}

	if refund != nil {
		if err := uc.refunds.PublishRefund(ctx, refund); err != nil {
			// бронирование уже в WAIT_REFUND, платёжная подсистема увидит его при сверке
			uc.logger.Error("CompletePayment: failed to publish refund for booking id=%d: %v", req.BookingID, err)
		} else {
			uc.logger.Info("CompletePayment: refund %s requested for booking id=%d", refund.ID, req.BookingID)
		}
	}

	return fmt.Errorf("%w: %s", ErrSlotAlreadyBooked, reason)
}

func (uc *UseCase) paymentRecord(req *Request, status domain.PaymentProcess) *domain.PaymentHistory {
	return &domain.PaymentHistory{
		BookingID:       req.BookingID,
		Amount:          req.Amount,
		TransactionCode: req.TransactionCode,
		PaymentMethod:   req.PaymentMethod,
		Status:          status,
	}
}
