package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/shenikar/mangrove_watch/internal/service"
	"github.com/shenikar/mangrove_watch/pkg/postgres"
)

const profileColumns = `id, full_name, email, avatar_url, location, type, role, points, tier, join_date, updated_at`

type ProfileRepository struct {
	db      postgres.Querier
	timeout time.Duration
}

func NewProfileRepository(db postgres.Querier, timeout time.Duration) service.ProfileRepository {
	return &ProfileRepository{db: db, timeout: timeout}
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	profile := &models.Profile{}
	err := row.Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Email,
		&profile.AvatarURL,
		&profile.Location,
		&profile.Type,
		&profile.Role,
		&profile.Points,
		&profile.Tier,
		&profile.JoinDate,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func collectProfiles(rows pgx.Rows) ([]*models.Profile, error) {
	defer rows.Close()

	profiles := make([]*models.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return profiles, nil
}

// Create сохраняет профиль с ID, выданным провайдером идентичности.
// Если профиль с таким ID уже есть, возвращает ErrAlreadyExists.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO profiles (id, full_name, email, avatar_url, location, type, role, points, tier, join_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
		RETURNING join_date, updated_at;
	`
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query,
		profile.ID,
		profile.FullName,
		profile.Email,
		profile.AvatarURL,
		profile.Location,
		profile.Type,
		profile.Role,
		profile.Points,
		profile.Tier,
		profile.JoinDate,
	).Scan(&profile.JoinDate, &profile.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("profile %s: %w", profile.ID, models.ErrAlreadyExists)
	}
	if err != nil {
		return mapError("failed to create profile", err)
	}
	return nil
}

// GetByID возвращает профиль. Внутри транзакции строка блокируется до ее конца.
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	if postgres.InTx(ctx) {
		query += ` FOR UPDATE`
	}
	profile, err := scanProfile(postgres.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("failed to get profile %s", id), err)
	}
	return profile, nil
}

// Update сохраняет редактируемые поля профиля
func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE profiles SET
			full_name = $2,
			location = $3,
			avatar_url = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at;
	`
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query,
		profile.ID,
		profile.FullName,
		profile.Location,
		profile.AvatarURL,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		return mapError(fmt.Sprintf("failed to update profile %s", profile.ID), err)
	}
	return nil
}

// Delete удаляет профиль, инциденты автора не трогаются
func (r *ProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmdTag, err := postgres.Conn(ctx, r.db).Exec(ctx, `DELETE FROM profiles WHERE id = $1;`, id)
	if err != nil {
		return mapError("failed to delete profile", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("profile with id %s not found for delete: %w", id, models.ErrNotFound)
	}
	return nil
}

// List возвращает профили с пагинацией в порядке регистрации
func (r *ProfileRepository) List(ctx context.Context, page, pageSize int) ([]*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		ORDER BY join_date, id
		LIMIT $1 OFFSET $2;
	`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, mapError("failed to list profiles", err)
	}
	profiles, err := collectProfiles(rows)
	if err != nil {
		return nil, mapError("failed to list profiles", err)
	}
	return profiles, nil
}

// IncrementPoints атомарно прибавляет amount к очкам и возвращает обновленную строку.
// Уровень не пересчитывается, это делает вызывающий.
func (r *ProfileRepository) IncrementPoints(ctx context.Context, id uuid.UUID, amount int) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE profiles SET
			points = points + $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns + `;
	`
	profile, err := scanProfile(postgres.Conn(ctx, r.db).QueryRow(ctx, query, id, amount))
	if err != nil {
		return nil, mapError(fmt.Sprintf("failed to increment points of profile %s", id), err)
	}
	return profile, nil
}

// SetPoints записывает очки и уровень
func (r *ProfileRepository) SetPoints(ctx context.Context, id uuid.UUID, points int, tier models.Tier) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE profiles SET
			points = $2,
			tier = $3,
			updated_at = NOW()
		WHERE id = $1;
	`
	cmdTag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, id, points, tier)
	if err != nil {
		return mapError("failed to set profile points", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("profile with id %s not found for points update: %w", id, models.ErrNotFound)
	}
	return nil
}

// TopByPoints возвращает первые limit профилей рейтинга
func (r *ProfileRepository) TopByPoints(ctx context.Context, limit int) ([]*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		ORDER BY points DESC, join_date ASC, id ASC
		LIMIT $1;
	`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, limit)
	if err != nil {
		return nil, mapError("failed to load leaderboard", err)
	}
	profiles, err := collectProfiles(rows)
	if err != nil {
		return nil, mapError("failed to load leaderboard", err)
	}
	return profiles, nil
}

func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int
	if err := postgres.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM profiles;`).Scan(&count); err != nil {
		return 0, mapError("failed to count profiles", err)
	}
	return count, nil
}

func (r *ProfileRepository) TotalPoints(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var total int
	if err := postgres.Conn(ctx, r.db).QueryRow(ctx, `SELECT COALESCE(SUM(points), 0) FROM profiles;`).Scan(&total); err != nil {
		return 0, mapError("failed to sum profile points", err)
	}
	return total, nil
}
