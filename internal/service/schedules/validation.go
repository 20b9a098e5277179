package schedules

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(domain.DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be in format %s", ErrInvalidInput, domain.DateFormat)
	}
	return date, nil
}

func validateTimeSlotIDs(ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one time slot is required", ErrInvalidInput)
	}
	if len(ids) > domain.MaxTimeSlotsPerSchedule {
		return fmt.Errorf("%w: at most %d time slots per schedule", ErrInvalidInput, domain.MaxTimeSlotsPerSchedule)
	}

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%w: time slot id must be positive", ErrInvalidInput)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate time slot id %d", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validatePrice(price float64) error {
	if price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return nil
}
