package models

import (
	"time"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

// Request модели

// HandleBookingRequest решение ментора по ожидающему бронированию
type HandleBookingRequest struct {
	BookingID   int64
	MentorID    int64
	Action      string  // APPROVE | REJECT
	Reason      string  // обязателен для REJECT
	LinkMeeting *string // ссылка на встречу при подтверждении
}

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	BookingID int64
	ActorID   int64
	Reason    string
}

// MarkPaymentFailedRequest уведомление о неуспешной оплате
type MarkPaymentFailedRequest struct {
	BookingID int64
	Reason    string
}

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID   int64
	AsMentor bool    // true - бронирования на расписания пользователя как ментора
	Status   *string // фильтр по статусу (опционально)
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID             int64     `json:"id"`
	ScheduleID     int64     `json:"scheduleId"`
	CustomerID     int64     `json:"customerId"`
	MentorID       int64     `json:"mentorId"`
	Status         string    `json:"status"`
	PaymentProcess string    `json:"paymentProcess"`
	Service        string    `json:"service"`
	Description    string    `json:"description"`
	Comment        *string   `json:"comment,omitempty"`
	LinkMeeting    *string   `json:"linkMeeting,omitempty"`
	IsRead         bool      `json:"isRead"`
	Date           string    `json:"date,omitempty"` // "2026-10-18"
	TimeSlots      []string  `json:"timeSlots,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// HistoryResponse запись журнала
type HistoryResponse struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	CreatedBy   *int64    `json:"createdBy"` // null - системное действие
	CreatedAt   time.Time `json:"createdAt"`
}

// PaymentResponse платёжная запись
type PaymentResponse struct {
	Amount          float64 `json:"amount"`
	TransactionCode string  `json:"transactionCode"`
	PaymentMethod   string  `json:"paymentMethod,omitempty"`
	Status          string  `json:"status"`
}

// BookingDetailsResponse бронирование вместе с журналом и оплатой
type BookingDetailsResponse struct {
	BookingResponse
	Price   float64           `json:"price"`
	Payment *PaymentResponse  `json:"payment,omitempty"`
	History []HistoryResponse `json:"history"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO. schedule может быть nil.
func FromDomainBooking(b *domain.Booking, schedule *domain.Schedule) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:             b.ID,
		ScheduleID:     b.ScheduleID,
		CustomerID:     b.CustomerID,
		MentorID:       b.MentorID,
		Status:         string(b.Status),
		PaymentProcess: string(b.PaymentProcess),
		Service:        b.Service,
		Description:    b.Description,
		Comment:        b.Comment,
		LinkMeeting:    b.LinkMeeting,
		IsRead:         b.IsRead,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}

	if schedule != nil {
		resp.Date = schedule.Date.Format(domain.DateFormat)
		resp.TimeSlots = make([]string, 0, len(schedule.TimeSlots))
		for _, ts := range schedule.TimeSlots {
			resp.TimeSlots = append(resp.TimeSlots, ts.Label())
		}
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking, schedules map[int64]*domain.Schedule) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, b := range bookings {
		resp.Bookings = append(resp.Bookings, *FromDomainBooking(b, schedules[b.ScheduleID]))
	}

	return resp
}

// FromDomainHistory конвертирует журнал
func FromDomainHistory(entries []*domain.History) []HistoryResponse {
	result := make([]HistoryResponse, 0, len(entries))
	for _, h := range entries {
		result = append(result, HistoryResponse{
			ID:          h.ID,
			Description: h.Description,
			CreatedBy:   h.CreatedBy,
			CreatedAt:   h.CreatedAt,
		})
	}
	return result
}

// FromDomainPayment конвертирует платёжную запись
func FromDomainPayment(p *domain.PaymentHistory) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		Amount:          p.Amount,
		TransactionCode: p.TransactionCode,
		PaymentMethod:   p.PaymentMethod,
		Status:          string(p.Status),
	}
}
