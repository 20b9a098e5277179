package domain

import "time"

// Schedule is one calendar date of one mentor, booked as a whole
type Schedule struct {
	ID        int64
	MentorID  int64
	Date      time.Time // календарная дата, полночь UTC
	Price     float64
	IsBooked  bool // кэш правила эксклюзивности, источник истины - bookings
	TimeSlots []TimeSlot

	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BelongsTo returns true if the schedule is owned by mentorID
func (s *Schedule) BelongsTo(mentorID int64) bool {
	return s.MentorID == mentorID
}

// IsDeleted returns true if the schedule was withdrawn by its mentor
func (s *Schedule) IsDeleted() bool {
	return s.DeletedAt != nil
}

// TimeSlotIDs returns ids of the attached slots
func (s *Schedule) TimeSlotIDs() []int64 {
	ids := make([]int64, 0, len(s.TimeSlots))
	for _, ts := range s.TimeSlots {
		ids = append(ids, ts.ID)
	}
	return ids
}

// EndHour returns the hour when the last attached slot ends
func (s *Schedule) EndHour() (int, bool) {
	return MaxEndHour(s.TimeSlots)
}

// ScheduleFilter фильтр выборки расписаний ментора
type ScheduleFilter struct {
	MentorID int64
	FromDate *time.Time // nil - без ограничения
	Date     *time.Time // конкретная дата
	// ExcludeID исключает расписание из выборки (при проверке пересечений на обновлении)
	ExcludeID int64
}
