package complete_payment

// Request уведомление платёжной подсистемы об успешной оплате
type Request struct {
	BookingID       int64
	Amount          float64
	TransactionCode string
	PaymentMethod   string
}

// Response результат обработки оплаты
type Response struct {
	BookingID      int64  `json:"bookingId"`
	Status         string `json:"status"`
	PaymentProcess string `json:"paymentProcess"`
	AlreadyPaid    bool   `json:"alreadyPaid"`
}
