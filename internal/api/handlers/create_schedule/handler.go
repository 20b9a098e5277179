package create_schedule

import (
	"net/http"

	"github.com/m04kA/SMC-MentorBooking/internal/api/handlers"
	"github.com/m04kA/SMC-MentorBooking/internal/api/middleware"
	"github.com/m04kA/SMC-MentorBooking/internal/service/schedules/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/schedules
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.CreateScheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /schedules - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.MentorID = mentorID

	result, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.logger.Warn("POST /schedules - Failed to create schedule: mentor_id=%d, error=%v", mentorID, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("POST /schedules - Schedule created: schedule_id=%d, mentor_id=%d", result.ID, mentorID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
