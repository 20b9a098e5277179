// Package refunds передаёт платёжной подсистеме запросы на возврат денег.
// Сам возврат здесь не выполняется: бронирование остаётся в WAIT_REFUND до подтверждения.
package refunds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

const DefaultQueue = "refund_requests"

var ErrPublish = errors.New("refunds: failed to publish refund request")

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
}

type message struct {
	ID              string  `json:"id"`
	BookingID       int64   `json:"booking_id"`
	ScheduleID      int64   `json:"schedule_id"`
	CustomerID      int64   `json:"customer_id"`
	Amount          float64 `json:"amount"`
	TransactionCode string  `json:"transaction_code,omitempty"`
	Reason          string  `json:"reason"`
	RequestedAt     string  `json:"requested_at"`
}

func toMessage(req *domain.RefundRequest) message {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return message{
		ID:              req.ID,
		BookingID:       req.BookingID,
		ScheduleID:      req.ScheduleID,
		CustomerID:      req.CustomerID,
		Amount:          req.Amount,
		TransactionCode: req.TransactionCode,
		Reason:          req.Reason,
		RequestedAt:     req.RequestedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// RedisPublisher кладёт запросы в Redis список (RPUSH), платёжная подсистема забирает их с другого конца
type RedisPublisher struct {
	client redis.UniversalClient
	queue  string
}

func NewRedisPublisher(client redis.UniversalClient, queue string) *RedisPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &RedisPublisher{client: client, queue: queue}
}

func (p *RedisPublisher) PublishRefund(ctx context.Context, req *domain.RefundRequest) error {
	payload, err := json.Marshal(toMessage(req))
	if err != nil {
		return fmt.Errorf("%w: marshal: %w", ErrPublish, err)
	}

	if err := p.client.RPush(ctx, p.queue, payload).Err(); err != nil {
		return fmt.Errorf("%w: rpush %s: %w", ErrPublish, p.queue, err)
	}
	return nil
}

// LogPublisher только пишет запрос в лог (Redis выключен)
type LogPublisher struct {
	log Logger
}

func NewLogPublisher(log Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishRefund(_ context.Context, req *domain.RefundRequest) error {
	m := toMessage(req)
	p.log.Info("Refund requested: id=%s booking_id=%d schedule_id=%d amount=%.2f reason=%q",
		m.ID, m.BookingID, m.ScheduleID, m.Amount, m.Reason)
	return nil
}
