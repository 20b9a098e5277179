package history

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
	ErrBuildQuery = errors.New("history.repository: failed to build query")
	ErrExecQuery  = errors.New("history.repository: failed to execute query")
	ErrScanRow    = errors.New("history.repository: failed to scan row")
)

// Repository журнал действий над бронированиями. Только добавление, изменение запрещено триггером.
type Repository struct {
	db dbmetrics.DBExecutor
}

func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет запись в журнал
func (r *Repository) Create(ctx context.Context, entry *domain.History) (*domain.History, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("histories").
		Columns("booking_id", "description", "created_by").
		Values(entry.BookingID, entry.Description, entry.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	entry.CreatedAt = createdAt.Time

	return entry, nil
}

// GetByBookingID возвращает журнал бронирования в порядке добавления
func (r *Repository) GetByBookingID(ctx context.Context, bookingID int64) ([]*domain.History, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "booking_id", "description", "created_by", "created_at").
		From("histories").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBookingID - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBookingID - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]*domain.History, 0)
	for rows.Next() {
		var h domain.History
		if err := rows.Scan(&h.ID, &h.BookingID, &h.Description, &h.CreatedBy, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: GetByBookingID - scan row: %w", ErrScanRow, err)
		}
		entries = append(entries, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetByBookingID - rows error: %w", ErrScanRow, err)
	}

	return entries, nil
}
