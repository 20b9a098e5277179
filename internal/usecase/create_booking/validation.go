package create_booking

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

// validateRequest валидирует и нормализует входные данные запроса
func validateRequest(req *Request) error {
	if req.CustomerID <= 0 {
		return fmt.Errorf("%w: customerID must be positive", ErrInvalidInput)
	}

	if req.ScheduleID <= 0 {
		return fmt.Errorf("%w: scheduleID must be positive", ErrInvalidInput)
	}

	req.Description = strings.TrimSpace(req.Description)
	if len([]rune(req.Description)) > domain.MaxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, domain.MaxDescriptionLength)
	}

	req.Service = strings.TrimSpace(req.Service)
	if req.Service == "" {
		req.Service = domain.DefaultService
	}
	if len(req.Service) > domain.MaxServiceLength {
		return fmt.Errorf("%w: service must be at most %d characters", ErrInvalidInput, domain.MaxServiceLength)
	}

	return nil
}
