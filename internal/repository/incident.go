package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/shenikar/mangrove_watch/internal/service"
	"github.com/shenikar/mangrove_watch/pkg/postgres"
)

const incidentColumns = `id, type, location, description, severity, status, reporter_id, created_at, updated_at`

type IncidentRepository struct {
	db          postgres.Querier
	redisClient *redis.Client
	timeout     time.Duration
	cacheTTL    time.Duration
}

func NewIncidentRepository(db postgres.Querier, redisClient *redis.Client, timeout, cacheTTL time.Duration) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
		timeout:     timeout,
		cacheTTL:    cacheTTL,
	}
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.Type,
		&incident.Location,
		&incident.Description,
		&incident.Severity,
		&incident.Status,
		&incident.ReporterID,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func collectIncidents(rows pgx.Rows) ([]*models.Incident, error) {
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO incidents (type, location, description, severity, status, reporter_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at;
	`
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query,
		incident.Type,
		incident.Location,
		incident.Description,
		incident.Severity,
		incident.Status,
		incident.ReporterID,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return mapError("failed to create incident", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`
	incident, err := scanIncident(postgres.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("failed to get incident %s", id), err)
	}
	return incident, nil
}

// GetByIDForUpdate читает инцидент и блокирует строку до конца транзакции
func (r *IncidentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	if !postgres.InTx(ctx) {
		return nil, fmt.Errorf("failed to lock incident %s: %w: no transaction in context", id, models.ErrPersistence)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1 FOR UPDATE;`
	incident, err := scanIncident(postgres.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("failed to lock incident %s", id), err)
	}
	return incident, nil
}

// UpdateStatus меняет статус, только если он все еще равен from
func (r *IncidentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.IncidentStatus) (*models.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE incidents SET
			status = $3,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + incidentColumns + `;
	`
	incident, err := scanIncident(postgres.Conn(ctx, r.db).QueryRow(ctx, query, id, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("incident %s is no longer %s: %w", id, from, models.ErrStaleStatus)
	}
	if err != nil {
		return nil, mapError("failed to update incident status", err)
	}
	return incident, nil
}

// Delete удаляет инцидент; строка должна быть в статусе resolved
func (r *IncidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `DELETE FROM incidents WHERE id = $1 AND status = 'resolved';`
	cmdTag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return mapError("failed to delete incident", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("resolved incident with id %s not found for delete: %w", id, models.ErrNotFound)
	}
	return nil
}

// List возвращает инциденты с пагинацией, новые первыми
func (r *IncidentRepository) List(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// рассчитываем смещение
	offset := (filter.Page - 1) * filter.PageSize

	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3;
	`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, string(filter.Status), filter.PageSize, offset)
	if err != nil {
		return nil, mapError("failed to list incidents", err)
	}
	incidents, err := collectIncidents(rows)
	if err != nil {
		return nil, mapError("failed to list incidents", err)
	}
	return incidents, nil
}

// ListByReporter возвращает инциденты автора, новые первыми
func (r *IncidentRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]*models.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE reporter_id = $1
		ORDER BY created_at DESC, id;
	`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, reporterID)
	if err != nil {
		return nil, mapError("failed to list reporter incidents", err)
	}
	incidents, err := collectIncidents(rows)
	if err != nil {
		return nil, mapError("failed to list reporter incidents", err)
	}
	return incidents, nil
}

// CountByStatus возвращает число инцидентов в каждом статусе
func (r *IncidentRepository) CountByStatus(ctx context.Context) (map[models.IncidentStatus]int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `SELECT status, COUNT(*) FROM incidents GROUP BY status;`)
	if err != nil {
		return nil, mapError("failed to count incidents", err)
	}
	defer rows.Close()

	counts := make(map[models.IncidentStatus]int)
	for rows.Next() {
		var (
			status models.IncidentStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, mapError("failed to scan incident count", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("failed to count incidents", err)
	}
	return counts, nil
}

// ListRecent возвращает последние инциденты с именем автора. Если профиль удален, имя пустое.
func (r *IncidentRepository) ListRecent(ctx context.Context, limit int) ([]*models.IncidentSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT
			i.id,
			i.type,
			i.location,
			i.status,
			COALESCE(p.full_name, '') AS reporter_name,
			i.created_at
		FROM incidents i
		LEFT JOIN profiles p ON p.id = i.reporter_id
		ORDER BY i.created_at DESC, i.id
		LIMIT $1;
	`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, limit)
	if err != nil {
		return nil, mapError("failed to list recent incidents", err)
	}
	defer rows.Close()

	summaries := make([]*models.IncidentSummary, 0, limit)
	for rows.Next() {
		s := &models.IncidentSummary{}
		if err := rows.Scan(&s.ID, &s.Type, &s.Location, &s.Status, &s.ReporterName, &s.CreatedAt); err != nil {
			return nil, mapError("failed to scan recent incident", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("failed to list recent incidents", err)
	}
	return summaries, nil
}

func incidentCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("incident:%s", id.String())
}

func incidentCacheGenerationKey(id uuid.UUID) string {
	return fmt.Sprintf("incident:%s:gen", id.String())
}

// cacheGenerationTTL намного больше таймаута чтения из бд, чтобы счетчик не обнулился посреди заполнения кэша
const cacheGenerationTTL = 24 * time.Hour

// setIfGeneration пишет значение, только если поколение не изменилось с начала чтения из бд.
// KEYS[1] - инцидент, KEYS[2] - поколение; ARGV: значение, ожидаемое поколение, TTL в мс.
var setIfGeneration = redis.NewScript(`
if (redis.call("GET", KEYS[2]) or "0") ~= ARGV[2] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

// GetIncidentFromCache пытается получить инцидент из Redis, промах возвращает nil без ошибки
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	val, err := r.redisClient.Get(ctx, incidentCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// CacheGeneration возвращает поколение кэша инцидента. Читается до похода в бд.
func (r *IncidentRepository) CacheGeneration(ctx context.Context, id uuid.UUID) (int64, error) {
	gen, err := r.redisClient.Get(ctx, incidentCacheGenerationKey(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get incident cache generation: %w", err)
	}
	return gen, nil
}

// SetIncidentCache сохраняет инцидент в Redis, если с момента чтения generation кэш не инвалидировали.
// Возвращает false, если запись пропущена.
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident, generation int64) (bool, error) {
	val, err := json.Marshal(incident)
	if err != nil {
		return false, fmt.Errorf("failed to marshal incident for cache: %w", err)
	}

	keys := []string{incidentCacheKey(incident.ID), incidentCacheGenerationKey(incident.ID)}
	stored, err := setIfGeneration.Run(ctx, r.redisClient, keys, val, generation, r.cacheTTL.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return stored == 1, nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша и сдвигает поколение,
// чтобы незавершенные заполнения кэша не вернули старую копию
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	genKey := incidentCacheGenerationKey(id)
	_, err := r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, cacheGenerationTTL)
		pipe.Del(ctx, incidentCacheKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}
