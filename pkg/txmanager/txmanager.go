// Package txmanager управляет транзакциями, пробрасывая их через context
package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-MentorBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-MentorBooking/pkg/pgerrors"
)

const (
	defaultMaxRetries = 3
	retryBackoff      = 20 * time.Millisecond
)

var (
	ErrBeginTx  = errors.New("txmanager: begin transaction")
	ErrCommitTx = errors.New("txmanager: commit transaction")
)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RetryObserver учитывает повторы транзакций
type RetryObserver interface {
	IncTxRetry()
}

// TxManager запускает функции в транзакции
type TxManager struct {
	db         dbmetrics.TxBeginner
	logger     Logger
	retries    RetryObserver
	maxRetries int
}

// Option настройка менеджера
type Option func(*TxManager)

// WithMaxRetries задаёт число повторов для сериализуемых транзакций
func WithMaxRetries(n int) Option {
	return func(m *TxManager) {
		if n > 0 {
			m.maxRetries = n
		}
	}
}

// WithRetryObserver подключает учёт повторов
func WithRetryObserver(o RetryObserver) Option {
	return func(m *TxManager) {
		m.retries = o
	}
}

func New(db dbmetrics.TxBeginner, logger Logger, opts ...Option) *TxManager {
	m := &TxManager{
		db:         db,
		logger:     logger,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do выполняет fn в транзакции READ COMMITTED
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

// DoReadOnly выполняет fn в транзакции только для чтения
func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

// DoSerializable выполняет fn в транзакции SERIALIZABLE.
// При ошибке сериализации или дедлоке транзакция повторяется целиком,
// поэтому fn должна быть без побочных эффектов вне БД.
func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	// вложенный вызов работает в уже открытой транзакции, повтор делает внешний
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		err = m.run(ctx, opts, fn)
		if err == nil || !pgerrors.IsRetryable(err) {
			return err
		}
		if m.retries != nil {
			m.retries.IncTxRetry()
		}
		if m.logger != nil {
			m.logger.Warn("Serializable transaction conflict, attempt %d/%d: %v", attempt, m.maxRetries, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}

func (m *TxManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginTx, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txCtx := dbmetrics.WithTx(ctx, tx)
	if opts != nil && opts.ReadOnly {
		txCtx = dbmetrics.WithReadOnlyTx(ctx, tx)
	}

	if err = fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && m.logger != nil {
			m.logger.Error("Failed to rollback transaction: %v", rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitTx, err)
	}
	return nil
}
