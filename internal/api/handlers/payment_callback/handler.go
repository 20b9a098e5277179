package payment_callback

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-MentorBooking/internal/api/handlers"
	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	"github.com/m04kA/SMC-MentorBooking/internal/service/bookings"
	"github.com/m04kA/SMC-MentorBooking/internal/service/bookings/models"
	completePayment "github.com/m04kA/SMC-MentorBooking/internal/usecase/complete_payment"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidStatus      = "статус оплаты должен быть COMPLETED или FAILED"
	msgNotFound           = "бронирование не найдено"
	msgSlotAlreadyBooked  = "расписание недоступно, оплата будет возвращена"
	msgWrongPaymentState  = "оплата бронирования уже обработана"
)

type Handler struct {
	useCase CompletePaymentUseCase
	service BookingService
	logger  Logger
}

func NewHandler(useCase CompletePaymentUseCase, service BookingService, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/internal/payments/callback
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req PaymentCallbackRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /internal/payments/callback - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	status, err := domain.ParsePaymentProcess(req.Status)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidStatus)
		return
	}

	switch status {
	case domain.PaymentCompleted:
		h.completed(w, r, &req)
	case domain.PaymentFailed:
		h.failed(w, r, &req)
	default:
		handlers.RespondBadRequest(w, msgInvalidStatus)
	}
}

func (h *Handler) completed(w http.ResponseWriter, r *http.Request, req *PaymentCallbackRequest) {
	result, err := h.useCase.Execute(r.Context(), &completePayment.Request{
		BookingID:       req.BookingID,
		Amount:          req.Amount,
		TransactionCode: req.TransactionCode,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, completePayment.ErrSlotAlreadyBooked):
			h.logger.Warn("POST /internal/payments/callback - Refund requested: booking_id=%d, reason=%v", req.BookingID, err)
			handlers.RespondConflict(w, msgSlotAlreadyBooked)

		case errors.Is(err, completePayment.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, completePayment.ErrPaymentNotPending):
			handlers.RespondUnprocessable(w, msgWrongPaymentState)

		case errors.Is(err, completePayment.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /internal/payments/callback - Failed to complete payment: booking_id=%d, error=%v", req.BookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /internal/payments/callback - Payment completed: booking_id=%d, already_paid=%t", result.BookingID, result.AlreadyPaid)
	handlers.RespondJSON(w, http.StatusOK, &PaymentCallbackResponse{
		BookingID:      result.BookingID,
		Status:         result.Status,
		PaymentProcess: result.PaymentProcess,
	})
}

func (h *Handler) failed(w http.ResponseWriter, r *http.Request, req *PaymentCallbackRequest) {
	result, err := h.service.MarkPaymentFailed(r.Context(), &models.MarkPaymentFailedRequest{
		BookingID: req.BookingID,
		Reason:    req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrCannotFailPayment):
			handlers.RespondUnprocessable(w, msgWrongPaymentState)

		default:
			h.logger.Error("POST /internal/payments/callback - Failed to mark payment failed: booking_id=%d, error=%v", req.BookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /internal/payments/callback - Payment failed: booking_id=%d", result.ID)
	handlers.RespondJSON(w, http.StatusOK, &PaymentCallbackResponse{
		BookingID:      result.ID,
		Status:         result.Status,
		PaymentProcess: result.PaymentProcess,
	})
}
