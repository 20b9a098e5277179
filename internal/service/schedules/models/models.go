package models

import (
	"time"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

// Request модели

// CreateScheduleRequest запрос на публикацию расписания
type CreateScheduleRequest struct {
	MentorID    int64   `json:"-"`
	Date        string  `json:"date"` // "2026-10-18"
	TimeSlotIDs []int64 `json:"timeSlotIds"`
	Price       float64 `json:"price"`
}

// UpdateScheduleRequest запрос на изменение расписания, nil-поля не меняются
type UpdateScheduleRequest struct {
	ScheduleID  int64    `json:"-"`
	MentorID    int64    `json:"-"`
	Date        *string  `json:"date,omitempty"`
	TimeSlotIDs []int64  `json:"timeSlotIds,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// Response модели

// TimeSlotResponse слот справочника
type TimeSlotResponse struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	StartHour int    `json:"startHour"`
	EndHour   int    `json:"endHour"`
	Label     string `json:"label"`
}

// ScheduleResponse расписание ментора
type ScheduleResponse struct {
	ID        int64              `json:"id"`
	MentorID  int64              `json:"mentorId"`
	Date      string             `json:"date"`
	Price     float64            `json:"price"`
	IsBooked  bool               `json:"isBooked"`
	TimeSlots []TimeSlotResponse `json:"timeSlots"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ScheduleListResponse список расписаний
type ScheduleListResponse struct {
	Schedules []ScheduleResponse `json:"schedules"`
}

// TimeSlotListResponse справочник слотов
type TimeSlotListResponse struct {
	TimeSlots []TimeSlotResponse `json:"timeSlots"`
}

// Методы конвертации

// FromDomainTimeSlots конвертирует слоты
func FromDomainTimeSlots(slots []domain.TimeSlot) []TimeSlotResponse {
	result := make([]TimeSlotResponse, 0, len(slots))
	for _, ts := range slots {
		result = append(result, TimeSlotResponse{
			ID:        ts.ID,
			Code:      ts.Code,
			StartHour: ts.StartHour,
			EndHour:   ts.EndHour,
			Label:     ts.Label(),
		})
	}
	return result
}

// FromDomainSchedule конвертирует расписание; isBooked вычисляется по бронированиям
func FromDomainSchedule(s *domain.Schedule, isBooked bool) *ScheduleResponse {
	if s == nil {
		return nil
	}
	return &ScheduleResponse{
		ID:        s.ID,
		MentorID:  s.MentorID,
		Date:      s.Date.Format(domain.DateFormat),
		Price:     s.Price,
		IsBooked:  isBooked,
		TimeSlots: FromDomainTimeSlots(s.TimeSlots),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
