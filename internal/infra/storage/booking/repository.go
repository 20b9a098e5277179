package booking

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	"github.com/m04kA/SMC-MentorBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-MentorBooking/pkg/pgerrors"
	"github.com/m04kA/SMC-MentorBooking/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"schedule_id",
	"customer_id",
	"mentor_id",
	"status",
	"payment_process",
	"service",
	"description",
	"comment",
	"link_meeting",
	"is_read",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование.
// Если в контексте передана активная транзакция, использует её.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"schedule_id",
			"customer_id",
			"mentor_id",
			"status",
			"payment_process",
			"service",
			"description",
			"comment",
			"link_meeting",
			"is_read",
		).
		Values(
			booking.ScheduleID,
			booking.CustomerID,
			booking.MentorID,
			booking.Status,
			booking.PaymentProcess,
			booking.Service,
			booking.Description,
			booking.Comment,
			booking.LinkMeeting,
			booking.IsRead,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)
	if pgerrors.IsUniqueViolation(err) {
		return nil, ErrExclusivityViolation
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID.
// Внутри пишущей транзакции строка блокируется (FOR UPDATE).
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.ShouldLockRows(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %w", ErrScanRow, err)
	}

	return booking, nil
}

// GetByCustomerID получает бронирования клиента, опционально фильтрует по статусу
func (r *Repository) GetByCustomerID(ctx context.Context, customerID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	return r.list(ctx, "GetByCustomerID", squirrel.Eq{"customer_id": customerID}, status)
}

// GetByMentorID получает бронирования на расписания ментора, опционально фильтрует по статусу
func (r *Repository) GetByMentorID(ctx context.Context, mentorID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	return r.list(ctx, "GetByMentorID", squirrel.Eq{"mentor_id": mentorID}, status)
}

// ListByStatusAndPayment получает все бронирования в заданном состоянии.
// Используется планировщиком автозавершения.
func (r *Repository) ListByStatusAndPayment(ctx context.Context, status domain.BookingStatus, payment domain.PaymentProcess) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"status": status, "payment_process": payment}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByStatusAndPayment - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByStatusAndPayment - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// Update сохраняет изменяемые поля бронирования: статус, оплату, комментарий, ссылку на встречу
func (r *Repository) Update(ctx context.Context, booking *domain.Booking) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", booking.Status).
		Set("payment_process", booking.PaymentProcess).
		Set("comment", booking.Comment).
		Set("link_meeting", booking.LinkMeeting).
		Set("is_read", booking.IsRead).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": booking.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if pgerrors.IsUniqueViolation(err) {
		return ErrExclusivityViolation
	}
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// ExistsExclusive проверяет, удерживает ли расписание какое-либо бронирование, кроме excludeBookingID.
// excludeBookingID = 0 - проверяются все бронирования.
func (r *Repository) ExistsExclusive(ctx context.Context, scheduleID, excludeBookingID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	sub := psqlbuilder.Select("1").
		From("bookings").
		Where(exclusiveCondition()).
		Where(squirrel.Eq{"schedule_id": scheduleID})

	if excludeBookingID != 0 {
		sub = sub.Where(squirrel.NotEq{"id": excludeBookingID})
	}

	query, args, err := psqlbuilder.Exists(sub).ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: ExistsExclusive - build select query: %w", ErrBuildQuery, err)
	}

	var exists bool
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: ExistsExclusive - scan: %w", ErrScanRow, err)
	}

	return exists, nil
}

// ExistsLive проверяет, есть ли на расписании бронирование, кроме отменённых и отклонённых.
// Такое расписание менять и удалять нельзя, даже если оплаты ещё не было.
func (r *Repository) ExistsLive(ctx context.Context, scheduleID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	sub := psqlbuilder.Select("1").
		From("bookings").
		Where(squirrel.Eq{"schedule_id": scheduleID}).
		Where(squirrel.NotEq{"status": domain.NonExclusiveStatuses})

	query, args, err := psqlbuilder.Exists(sub).ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: ExistsLive - build select query: %w", ErrBuildQuery, err)
	}

	var exists bool
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: ExistsLive - scan: %w", ErrScanRow, err)
	}

	return exists, nil
}

// ExclusiveScheduleIDs возвращает, какие из расписаний заняты по правилу эксклюзивности
func (r *Repository) ExclusiveScheduleIDs(ctx context.Context, scheduleIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(scheduleIDs))
	if len(scheduleIDs) == 0 {
		return result, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("DISTINCT schedule_id").
		From("bookings").
		Where(exclusiveCondition()).
		Where(squirrel.Eq{"schedule_id": scheduleIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ExclusiveScheduleIDs - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ExclusiveScheduleIDs - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	for _, id := range scheduleIDs {
		result[id] = false
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ExclusiveScheduleIDs - scan schedule_id: %w", ErrScanRow, err)
		}
		result[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ExclusiveScheduleIDs - rows error: %w", ErrScanRow, err)
	}

	return result, nil
}

func (r *Repository) list(ctx context.Context, method string, where squirrel.Eq, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(where).
		OrderBy("created_at DESC", "id DESC")

	// Фильтрация по статусу, если указан
	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, method, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %w", ErrExecQuery, method, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// exclusiveCondition условие правила эксклюзивности, совпадает с частичным уникальным индексом
func exclusiveCondition() squirrel.Sqlizer {
	return squirrel.And{
		squirrel.Eq{"payment_process": domain.PaymentCompleted},
		squirrel.NotEq{"status": domain.NonExclusiveStatuses},
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.ScheduleID,
		&booking.CustomerID,
		&booking.MentorID,
		&booking.Status,
		&booking.PaymentProcess,
		&booking.Service,
		&booking.Description,
		&booking.Comment,
		&booking.LinkMeeting,
		&booking.IsRead,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %w", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %w", ErrScanRow, err)
	}

	return bookings, nil
}
