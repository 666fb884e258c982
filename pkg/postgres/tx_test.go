package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestWithinTx_Commit(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE profiles").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	m := NewTxManager(mock, time.Second)
	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTx(ctx))
		_, err := Conn(ctx, mock).Exec(ctx, "UPDATE profiles SET points = 1")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	errBoom := errors.New("boom")
	m := NewTxManager(mock, time.Second)
	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		return errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_NestedUsesSavepoint(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectCommit()

	m := NewTxManager(mock, time.Second)
	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		return m.WithinTx(ctx, func(ctx context.Context) error {
			assert.True(t, InTx(ctx))
			return nil
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_InnerErrorRollsBackSavepointOnly(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectExec("UPDATE profiles").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	errInner := errors.New("inner failed")
	m := NewTxManager(mock, time.Second)
	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		innerErr := m.WithinTx(ctx, func(ctx context.Context) error {
			return errInner
		})
		assert.ErrorIs(t, innerErr, errInner)

		_, err := Conn(ctx, mock).Exec(ctx, "UPDATE profiles SET points = 1")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_BeginFailureIsPersistence(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin().WillReturnError(errors.New("dial tcp: connection refused"))

	called := false
	m := NewTxManager(mock, time.Second)
	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_BeginTimeout(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin().WillDelayFor(time.Second)

	m := NewTxManager(mock, 10*time.Millisecond)
	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		return nil
	})

	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithinTx_CommitFailureIsPersistence(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset by peer"))

	m := NewTxManager(mock, time.Second)
	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		return nil
	})

	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_PanicRollsBack(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	m := NewTxManager(mock, time.Second)
	assert.PanicsWithValue(t, "boom", func() {
		_ = m.WithinTx(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_WithoutTransactionUsesPool(t *testing.T) {
	mock := newMockPool(t)

	assert.False(t, InTx(context.Background()))
	assert.Equal(t, Querier(mock), Conn(context.Background(), mock))
}
