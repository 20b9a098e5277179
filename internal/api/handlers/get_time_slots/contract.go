package get_time_slots

import (
	"context"

	"github.com/m04kA/SMC-MentorBooking/internal/service/schedules/models"
)

type ScheduleService interface {
	ListTimeSlots(ctx context.Context) (*models.TimeSlotListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
