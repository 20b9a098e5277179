package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	"github.com/m04kA/SMC-MentorBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-MentorBooking/pkg/psqlbuilder"
)

var (
	// ErrPaymentNotFound у бронирования ещё нет платёжной записи
	ErrPaymentNotFound = errors.New("payment.repository: payment not found")

	ErrBuildQuery = errors.New("payment.repository: failed to build query")
	ErrExecQuery  = errors.New("payment.repository: failed to execute query")
	ErrScanRow    = errors.New("payment.repository: failed to scan row")
)

// Repository платёжные записи бронирований (одна на бронирование)
type Repository struct {
	db dbmetrics.DBExecutor
}

func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Upsert создаёт или перезаписывает платёжную запись бронирования
func (r *Repository) Upsert(ctx context.Context, p *domain.PaymentHistory) (*domain.PaymentHistory, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payment_histories").
		Columns("booking_id", "amount", "transaction_code", "payment_method", "status").
		Values(p.BookingID, p.Amount, p.TransactionCode, p.PaymentMethod, p.Status).
		Suffix(`ON CONFLICT (booking_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			transaction_code = EXCLUDED.transaction_code,
			payment_method = EXCLUDED.payment_method,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %w", ErrExecQuery, err)
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return p, nil
}

// UpdateStatus меняет статус платёжной записи бронирования
func (r *Repository) UpdateStatus(ctx context.Context, bookingID int64, status domain.PaymentProcess) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("payment_histories").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %w", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

// GetByBookingID возвращает платёжную запись бронирования
func (r *Repository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.PaymentHistory, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id", "booking_id", "amount", "transaction_code", "payment_method", "status", "created_at", "updated_at",
	).
		From("payment_histories").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBookingID - build select query: %w", ErrBuildQuery, err)
	}

	var p domain.PaymentHistory
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.BookingID,
		&p.Amount,
		&p.TransactionCode,
		&p.PaymentMethod,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBookingID - scan row: %w", ErrScanRow, err)
	}

	return &p, nil
}
