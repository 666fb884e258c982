package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/shenikar/mangrove_watch/pkg/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileColumnNames = []string{"id", "full_name", "email", "avatar_url", "location", "type", "role", "points", "tier", "join_date", "updated_at"}

func profileRow(mock pgxmock.PgxPoolIface, p *models.Profile) *pgxmock.Rows {
	return mock.NewRows(profileColumnNames).
		AddRow(p.ID, p.FullName, p.Email, p.AvatarURL, p.Location, p.Type, p.Role, p.Points, p.Tier, p.JoinDate, p.UpdatedAt)
}

func newTestProfile() *models.Profile {
	return &models.Profile{
		ID:       uuid.New(),
		FullName: "Amina Diallo",
		Type:     models.ProfileTypeIndividual,
		Role:     models.RoleUser,
		Tier:     models.TierBronze,
		JoinDate: time.Now().UTC(),
	}
}

func createArgs(id uuid.UUID) []any {
	args := []any{id}
	for i := 0; i < 9; i++ {
		args = append(args, pgxmock.AnyArg())
	}
	return args
}

func TestProfileCreate(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProfileRepository(mock, time.Second)
	profile := newTestProfile()
	joined := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO profiles .* ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs(createArgs(profile.ID)...).
		WillReturnRows(mock.NewRows([]string{"join_date", "updated_at"}).AddRow(joined, joined))

	require.NoError(t, repo.Create(context.Background(), profile))
	assert.Equal(t, joined, profile.JoinDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileCreate_ConflictIsAlreadyExists(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProfileRepository(mock, time.Second)
	profile := newTestProfile()

	mock.ExpectQuery("INSERT INTO profiles").
		WithArgs(createArgs(profile.ID)...).
		WillReturnRows(mock.NewRows([]string{"join_date", "updated_at"}))

	err := repo.Create(context.Background(), profile)

	assert.ErrorIs(t, err, models.ErrAlreadyExists)
	assert.False(t, errors.Is(err, models.ErrPersistence))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileGetByID_LocksInsideTransaction(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProfileRepository(mock, time.Second)
	txm := postgres.NewTxManager(mock, time.Second)
	profile := newTestProfile()

	mock.ExpectQuery("FROM profiles WHERE id = \\$1$").WithArgs(profile.ID).WillReturnRows(profileRow(mock, profile))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM profiles WHERE id = \\$1 FOR UPDATE").WithArgs(profile.ID).WillReturnRows(profileRow(mock, profile))
	mock.ExpectCommit()

	_, err := repo.GetByID(context.Background(), profile.ID)
	require.NoError(t, err)

	err = txm.WithinTx(context.Background(), func(ctx context.Context) error {
		_, err := repo.GetByID(ctx, profile.ID)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementPoints(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProfileRepository(mock, time.Second)
	profile := newTestProfile()
	profile.Points = 550

	mock.ExpectQuery("points = points \\+ \\$2").
		WithArgs(profile.ID, 50).
		WillReturnRows(profileRow(mock, profile))

	got, err := repo.IncrementPoints(context.Background(), profile.ID, 50)

	require.NoError(t, err)
	assert.Equal(t, 550, got.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementPoints_StoreErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected error
	}{
		{"unsupported", &pgconn.PgError{Code: pgerrcode.FeatureNotSupported, Message: "UPDATE RETURNING"}, models.ErrIncrementUnsupported},
		{"missing profile", nil, models.ErrNotFound},
		{"connection lost", errors.New("conn closed"), models.ErrPersistence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewProfileRepository(mock, time.Second)
			id := uuid.New()

			exp := mock.ExpectQuery("points = points \\+ \\$2").WithArgs(id, 10)
			if tc.err != nil {
				exp.WillReturnError(tc.err)
			} else {
				exp.WillReturnRows(mock.NewRows(profileColumnNames))
			}

			_, err := repo.IncrementPoints(context.Background(), id, 10)

			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestIncrementPoints_OverflowIsValidation(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProfileRepository(mock, time.Second)
	id := uuid.New()

	mock.ExpectQuery("points = points \\+ \\$2").
		WithArgs(id, 1000).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.NumericValueOutOfRange, Message: "integer out of range"})

	_, err := repo.IncrementPoints(context.Background(), id, 1000)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)
	assert.False(t, errors.Is(err, models.ErrPersistence))
}

func TestSetPoints_NoMatchingRowIsNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProfileRepository(mock, time.Second)
	id := uuid.New()

	mock.ExpectExec("UPDATE profiles SET").
		WithArgs(id, 600, models.TierSilver).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetPoints(context.Background(), id, 600, models.TierSilver)

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
