package cancel_booking

import "github.com/m04kA/SMC-MentorBooking/internal/service/bookings/models"

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(bookingID, actorID int64) *models.CancelBookingRequest {
	return &models.CancelBookingRequest{
		BookingID: bookingID,
		ActorID:   actorID,
		Reason:    r.Reason,
	}
}
