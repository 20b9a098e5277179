package timeslot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	"github.com/m04kA/SMC-MentorBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-MentorBooking/pkg/psqlbuilder"
)

var (
	ErrBuildQuery = errors.New("timeslot.repository: failed to build query")
	ErrExecQuery  = errors.New("timeslot.repository: failed to execute query")
	ErrScanRow    = errors.New("timeslot.repository: failed to scan row")
)

// Repository справочник слотов (только чтение, заполняется миграцией)
type Repository struct {
	db dbmetrics.DBExecutor
}

func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetAll возвращает все слоты по возрастанию начала
func (r *Repository) GetAll(ctx context.Context) ([]domain.TimeSlot, error) {
	return r.list(ctx, "GetAll", nil)
}

// GetByIDs возвращает найденные слоты; отсутствующие id просто не попадают в результат
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]domain.TimeSlot, error) {
	if len(ids) == 0 {
		return []domain.TimeSlot{}, nil
	}
	return r.list(ctx, "GetByIDs", squirrel.Eq{"id": ids})
}

func (r *Repository) list(ctx context.Context, method string, where squirrel.Sqlizer) ([]domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "code", "start_hour", "end_hour").
		From("time_slots").
		OrderBy("start_hour ASC", "id ASC")
	if where != nil {
		selectBuilder = selectBuilder.Where(where)
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

	slots := make([]domain.TimeSlot, 0)
	for rows.Next() {
		var slot domain.TimeSlot
		if err := rows.Scan(&slot.ID, &slot.Code, &slot.StartHour, &slot.EndHour); err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %w", ErrScanRow, method, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %w", ErrScanRow, method, err)
	}

	return slots, nil
}
