package complete_payment

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

func validateRequest(req *Request) error {
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}

	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	req.TransactionCode = strings.TrimSpace(req.TransactionCode)
	if req.TransactionCode == "" {
		return fmt.Errorf("%w: transactionCode is required", ErrInvalidInput)
	}
	if len(req.TransactionCode) > domain.MaxTransactionCodeLength {
		return fmt.Errorf("%w: transactionCode must be at most %d characters", ErrInvalidInput, domain.MaxTransactionCodeLength)
	}

	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)

	return nil
}
