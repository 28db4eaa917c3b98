package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type txKey struct{}

// TxManager runs units of work in a PostgreSQL transaction carried through the
// context. Serialization failures and deadlocks are retried.
type TxManager struct {
	db         *sql.DB
	maxRetries int
	logger     *zap.Logger
}

func NewTxManager(db *sql.DB, maxRetries int, logger *zap.Logger) *TxManager {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &TxManager{db: db, maxRetries: maxRetries, logger: logger}
}

// QuerierFromContext returns the transaction bound to ctx, or db when there is none.
func QuerierFromContext(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		err = m.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		m.logger.Warn("Transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", m.maxRetries),
			zap.Error(err))
	}
	return err
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			m.logger.Error("Panic during transaction, rolling back", zap.Any("panic", p))
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				m.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return true
	}
	return false
}
