package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shenikar/mangrove_watch/internal/models"
)

// mapError переводит ошибки драйвера в ошибки предметной области
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.FeatureNotSupported:
		return fmt.Errorf("%s: %w: %s", op, models.ErrIncrementUnsupported, pgErr.Message)
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return fmt.Errorf("%s: %w", op, models.ErrAlreadyExists)
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NumericValueOutOfRange:
		return fmt.Errorf("%s: %w", op, &models.ValidationError{Field: "amount", Message: "points total would overflow"})
	default:
		return fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
	}
}
