package create_booking

import "time"

// Request модель запроса на создание бронирования
type Request struct {
	CustomerID  int64  // ID клиента (из X-User-ID)
	ScheduleID  int64  // ID расписания ментора
	Description string // Что клиент хочет обсудить
	Service     string // Тип услуги, по умолчанию MENTORING
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID             int64     `json:"id"`
	ScheduleID     int64     `json:"scheduleId"`
	CustomerID     int64     `json:"customerId"`
	MentorID       int64     `json:"mentorId"`
	Status         string    `json:"status"`
	PaymentProcess string    `json:"paymentProcess"`
	Service        string    `json:"service"`
	Description    string    `json:"description"`
	Date           string    `json:"date"`
	TimeSlots      []string  `json:"timeSlots"`
	Price          float64   `json:"price"`
	CreatedAt      time.Time `json:"createdAt"`
}
