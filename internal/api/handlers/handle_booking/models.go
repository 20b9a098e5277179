package handle_booking

import "github.com/m04kA/SMC-MentorBooking/internal/service/bookings/models"

// HandleBookingRequest HTTP request model
type HandleBookingRequest struct {
	Action      string  `json:"action"` // APPROVE | REJECT
	Reason      string  `json:"reason,omitempty"`
	LinkMeeting *string `json:"linkMeeting,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *HandleBookingRequest) ToServiceRequest(bookingID, mentorID int64) *models.HandleBookingRequest {
	return &models.HandleBookingRequest{
		BookingID:   bookingID,
		MentorID:    mentorID,
		Action:      r.Action,
		Reason:      r.Reason,
		LinkMeeting: r.LinkMeeting,
	}
}
