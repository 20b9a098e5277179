package payment_callback

// PaymentCallbackRequest уведомление платёжной подсистемы
type PaymentCallbackRequest struct {
	BookingID       int64   `json:"bookingId"`
	Status          string  `json:"status"` // COMPLETED | FAILED
	Amount          float64 `json:"amount"`
	TransactionCode string  `json:"transactionCode"`
	PaymentMethod   string  `json:"paymentMethod,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

// PaymentCallbackResponse ответ платёжной подсистеме
type PaymentCallbackResponse struct {
	BookingID      int64  `json:"bookingId"`
	Status         string `json:"status"`
	PaymentProcess string `json:"paymentProcess"`
}
