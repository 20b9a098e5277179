package get_mentor_schedules

import (
	"context"

	"github.com/m04kA/SMC-MentorBooking/internal/service/schedules/models"
)

type ScheduleService interface {
	ListUpcoming(ctx context.Context, mentorID int64) (*models.ScheduleListResponse, error)
	ListAll(ctx context.Context, mentorID int64) (*models.ScheduleListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
