package schedule

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

var scheduleColumns = []string{
	"id",
	"mentor_id",
	"date",
	"price",
	"is_booked",
	"deleted_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий расписаний менторов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет расписание и привязывает к нему слоты.
// Вызывать внутри транзакции, иначе при ошибке привязки слотов останется расписание без слотов.
func (r *Repository) Create(ctx context.Context, schedule *domain.Schedule) (*domain.Schedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("schedules").
		Columns("mentor_id", "date", "price", "is_booked").
		Values(schedule.MentorID, schedule.Date.Format(domain.DateFormat), schedule.Price, schedule.IsBooked).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&schedule.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	schedule.CreatedAt = createdAt.Time
	schedule.UpdatedAt = updatedAt.Time

	if err := r.attachTimeSlots(ctx, executor, schedule.ID, schedule.TimeSlotIDs()); err != nil {
		return nil, err
	}

	return schedule, nil
}

// GetByID получает живое (не удалённое) расписание со слотами.
// Внутри транзакции строка расписания блокируется (FOR UPDATE) - это точка сериализации бронирований.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(scheduleColumns...).
		From("schedules").
		Where(squirrel.Eq{"id": id, "deleted_at": nil})

	if dbmetrics.ShouldLockRows(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	schedule, err := scanSchedule(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan schedule: %w", ErrScanRow, err)
	}

	slots, err := r.loadTimeSlots(ctx, executor, []int64{schedule.ID})
	if err != nil {
		return nil, err
	}
	schedule.TimeSlots = slots[schedule.ID]

	return schedule, nil
}

// GetByIDs получает расписания пачкой, включая удалённые.
// Отсутствующие id просто не попадают в результат.
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Schedule, error) {
	result := make(map[int64]*domain.Schedule, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(scheduleColumns...).
		From("schedules").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByIDs - build select query: %w", ErrBuildQuery, err)
	}

	schedules, err := r.query(ctx, executor, "GetByIDs", query, args)
	if err != nil {
		return nil, err
	}

	for _, s := range schedules {
		result[s.ID] = s
	}
	return result, nil
}

// List получает живые расписания ментора по фильтру, отсортированные по дате
func (r *Repository) List(ctx context.Context, filter domain.ScheduleFilter) ([]*domain.Schedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(scheduleColumns...).
		From("schedules").
		Where(squirrel.Eq{"mentor_id": filter.MentorID, "deleted_at": nil}).
		OrderBy("date ASC", "id ASC")

	if filter.FromDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"date": filter.FromDate.Format(domain.DateFormat)})
	}
	if filter.Date != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"date": filter.Date.Format(domain.DateFormat)})
	}
	if filter.ExcludeID != 0 {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": filter.ExcludeID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %w", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "List", query, args)
}

// Update сохраняет дату, цену и набор слотов расписания
func (r *Repository) Update(ctx context.Context, schedule *domain.Schedule) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("schedules").
		Set("date", schedule.Date.Format(domain.DateFormat)).
		Set("price", schedule.Price).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": schedule.ID, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %w", ErrBuildQuery, err)
	}

	if err := execAffecting(ctx, executor, "Update", query, args); err != nil {
		return err
	}

	deleteQuery, deleteArgs, err := psqlbuilder.Delete("schedule_time_slots").
		Where(squirrel.Eq{"schedule_id": schedule.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build delete slots query: %w", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("%w: Update - delete slots: %w", ErrExecQuery, err)
	}

	return r.attachTimeSlots(ctx, executor, schedule.ID, schedule.TimeSlotIDs())
}

// SoftDelete помечает расписание удалённым. Бронирования продолжают на него ссылаться.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("schedules").
		Set("deleted_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SoftDelete - build update query: %w", ErrBuildQuery, err)
	}

	return execAffecting(ctx, executor, "SoftDelete", query, args)
}

// SetBooked обновляет кэш занятости расписания
func (r *Repository) SetBooked(ctx context.Context, id int64, booked bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("schedules").
		Set("is_booked", booked).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetBooked - build update query: %w", ErrBuildQuery, err)
	}

	return execAffecting(ctx, executor, "SetBooked", query, args)
}

func (r *Repository) attachTimeSlots(ctx context.Context, executor DBExecutor, scheduleID int64, slotIDs []int64) error {
	if len(slotIDs) == 0 {
		return nil
	}

	insert := psqlbuilder.Insert("schedule_time_slots").Columns("schedule_id", "time_slot_id")
	for _, slotID := range slotIDs {
		insert = insert.Values(scheduleID, slotID)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("%w: attachTimeSlots - build insert query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		if pgerrors.IsForeignKeyViolation(err) {
			return ErrUnknownTimeSlot
		}
		return fmt.Errorf("%w: attachTimeSlots - execute insert: %w", ErrExecQuery, err)
	}
	return nil
}

// query выполняет выборку расписаний и догружает их слоты.
// Курсор закрывается до загрузки слотов: внутри транзакции lib/pq не допускает двух открытых запросов.
func (r *Repository) query(ctx context.Context, executor DBExecutor, method, query string, args []interface{}) ([]*domain.Schedule, error) {
	schedules, err := func() ([]*domain.Schedule, error) {
		rows, err := executor.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - execute query: %w", ErrExecQuery, method, err)
		}
		defer rows.Close()

		schedules := make([]*domain.Schedule, 0)
		for rows.Next() {
			s, err := scanSchedule(rows)
			if err != nil {
				return nil, fmt.Errorf("%w: %s - scan row: %w", ErrScanRow, method, err)
			}
			schedules = append(schedules, s)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s - rows error: %w", ErrScanRow, method, err)
		}
		return schedules, nil
	}()
	if err != nil {
		return nil, err
	}

	if len(schedules) == 0 {
		return schedules, nil
	}

	ids := make([]int64, 0, len(schedules))
	for _, s := range schedules {
		ids = append(ids, s.ID)
	}

	slots, err := r.loadTimeSlots(ctx, executor, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range schedules {
		s.TimeSlots = slots[s.ID]
	}

	return schedules, nil
}

// loadTimeSlots загружает слоты расписаний одним запросом
func (r *Repository) loadTimeSlots(ctx context.Context, executor DBExecutor, scheduleIDs []int64) (map[int64][]domain.TimeSlot, error) {
	query, args, err := psqlbuilder.Select(
		"sts.schedule_id",
		"ts.id",
		"ts.code",
		"ts.start_hour",
		"ts.end_hour",
	).
		From("schedule_time_slots sts").
		Join("time_slots ts ON ts.id = sts.time_slot_id").
		Where(squirrel.Eq{"sts.schedule_id": scheduleIDs}).
		OrderBy("sts.schedule_id ASC", "ts.start_hour ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: loadTimeSlots - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: loadTimeSlots - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make(map[int64][]domain.TimeSlot, len(scheduleIDs))
	for rows.Next() {
		var scheduleID int64
		var slot domain.TimeSlot
		if err := rows.Scan(&scheduleID, &slot.ID, &slot.Code, &slot.StartHour, &slot.EndHour); err != nil {
			return nil, fmt.Errorf("%w: loadTimeSlots - scan row: %w", ErrScanRow, err)
		}
		result[scheduleID] = append(result[scheduleID], slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loadTimeSlots - rows error: %w", ErrScanRow, err)
	}

	return result, nil
}

func execAffecting(ctx context.Context, executor DBExecutor, method, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, method, err)
	}

	if rowsAffected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row rowScanner) (*domain.Schedule, error) {
	var s domain.Schedule
	var deletedAt, createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.MentorID,
		&s.Date,
		&s.Price,
		&s.IsBooked,
		&deletedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Date = domain.DateOnly(s.Date)
	if deletedAt.Valid {
		t := deletedAt.Time
		s.DeletedAt = &t
	}
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}
