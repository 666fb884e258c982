package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shenikar/mangrove_watch/internal/models"
)

// Querier - общий набор методов пула и транзакции
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB - пул, умеющий открывать транзакции
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

// TxManager выполняет функции внутри транзакции, передавая её через контекст
type TxManager struct {
	db      DB
	timeout time.Duration
}

func NewTxManager(db DB, timeout time.Duration) *TxManager {
	return &TxManager{db: db, timeout: timeout}
}

// WithinTx открывает транзакцию, либо savepoint, если транзакция уже есть в контексте.
// Ошибка или паника fn откатывает только свой уровень.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", models.ErrPersistence, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w: %w", models.ErrPersistence, err)
	}
	return nil
}

func (m *TxManager) begin(ctx context.Context) (pgx.Tx, error) {
	// таймаут только на захват соединения, сама транзакция живет в исходном контексте
	beginCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if outer, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return outer.Begin(beginCtx)
	}
	return m.db.Begin(beginCtx)
}

// Conn возвращает транзакцию из контекста или пул
func Conn(ctx context.Context, db Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// InTx сообщает, выполняется ли вызов внутри транзакции
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(pgx.Tx)
	return ok
}
