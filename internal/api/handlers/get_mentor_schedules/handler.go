package get_mentor_schedules

import (
	"net/http"

	"github.com/m04kA/SMC-MentorBooking/internal/api/handlers"
	"github.com/m04kA/SMC-MentorBooking/internal/service/schedules/models"
)

const (
	msgInvalidMentorID = "некорректный ID ментора"
	msgInvalidScope    = "параметр scope должен быть upcoming или all"
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

// Handle GET /api/v1/mentors/{mentorId}/schedules?scope=upcoming|all
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	mentorID, err := handlers.PathInt64(r, "mentorId")
	if err != nil {
		h.logger.Warn("GET /mentors/{id}/schedules - Invalid mentor ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidMentorID)
		return
	}

	var result *models.ScheduleListResponse
	switch r.URL.Query().Get("scope") {
	case "", "upcoming":
		result, err = h.service.ListUpcoming(r.Context(), mentorID)
	case "all":
		result, err = h.service.ListAll(r.Context(), mentorID)
	default:
		handlers.RespondBadRequest(w, msgInvalidScope)
		return
	}
	if err != nil {
		h.logger.Error("GET /mentors/{id}/schedules - Failed to list schedules: mentor_id=%d, error=%v", mentorID, err)
		handlers.RespondDomainError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
