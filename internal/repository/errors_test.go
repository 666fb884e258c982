package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected error
		notIs    error
	}{
		{"no rows", pgx.ErrNoRows, models.ErrNotFound, models.ErrPersistence},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), models.ErrNotFound, models.ErrPersistence},
		{"feature not supported", &pgconn.PgError{Code: pgerrcode.FeatureNotSupported, Message: "UPDATE RETURNING"}, models.ErrIncrementUnsupported, models.ErrPersistence},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, models.ErrAlreadyExists, models.ErrPersistence},
		{"timeout", context.DeadlineExceeded, models.ErrPersistence, models.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := mapError("failed to do something", tc.err)

			assert.ErrorIs(t, err, tc.expected)
			assert.False(t, errors.Is(err, tc.notIs))
			assert.Contains(t, err.Error(), "failed to do something")
		})
	}
}

func TestMapError_NumericOverflowIsValidation(t *testing.T) {
	err := mapError("failed to increment points", &pgconn.PgError{Code: pgerrcode.NumericValueOutOfRange, Message: "integer out of range"})

	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)
	assert.False(t, errors.Is(err, models.ErrPersistence))
}

func TestMapError_KeepsDriverError(t *testing.T) {
	err := mapError("failed to list incidents", context.DeadlineExceeded)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
