package memstore

import (
	"context"
	"sync"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

// RefundRecorder запоминает запросы на возврат вместо отправки в очередь
type RefundRecorder struct {
	mu       sync.Mutex
	requests []domain.RefundRequest
	Err      error
}

func (r *RefundRecorder) PublishRefund(_ context.Context, req *domain.RefundRequest) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, *req)
	return nil
}

// Requests отправленные запросы
func (r *RefundRecorder) Requests() []domain.RefundRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.RefundRequest(nil), r.requests...)
}
