package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/shenikar/mangrove_watch/pkg/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var incidentColumnNames = []string{"id", "type", "location", "description", "severity", "status", "reporter_id", "created_at", "updated_at"}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func newTestIncidentRepository(t *testing.T, db postgres.Querier) (*IncidentRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewIncidentRepository(db, client, time.Second, time.Minute).(*IncidentRepository)
	return repo, mr
}

func incidentRow(mock pgxmock.PgxPoolIface, i *models.Incident) *pgxmock.Rows {
	return mock.NewRows(incidentColumnNames).
		AddRow(i.ID, i.Type, i.Location, i.Description, string(i.Severity), string(i.Status), i.ReporterID, i.CreatedAt, i.UpdatedAt)
}

func TestGetByIDForUpdate_RequiresTransaction(t *testing.T) {
	repo := &IncidentRepository{timeout: time.Second}

	incident, err := repo.GetByIDForUpdate(context.Background(), uuid.New())

	assert.Nil(t, incident)
	assert.ErrorIs(t, err, models.ErrPersistence)
}

func TestGetByIDForUpdate_LocksRowInTransaction(t *testing.T) {
	mock := newMockPool(t)
	repo, _ := newTestIncidentRepository(t, mock)
	txm := postgres.NewTxManager(mock, time.Second)
	stored := &models.Incident{ID: uuid.New(), Type: "Illegal logging", Severity: models.SeverityHigh, Status: models.StatusNew, ReporterID: uuid.New()}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM incidents WHERE id = \\$1 FOR UPDATE").WithArgs(stored.ID).WillReturnRows(incidentRow(mock, stored))
	mock.ExpectCommit()

	var got *models.Incident
	err := txm.WithinTx(context.Background(), func(ctx context.Context) error {
		var err error
		got, err = repo.GetByIDForUpdate(ctx, stored.ID)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, models.StatusNew, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_Guarded(t *testing.T) {
	mock := newMockPool(t)
	repo, _ := newTestIncidentRepository(t, mock)
	stored := &models.Incident{ID: uuid.New(), Severity: models.SeverityLow, Status: models.StatusInvestigating, ReporterID: uuid.New()}

	mock.ExpectQuery("UPDATE incidents SET").
		WithArgs(stored.ID, models.StatusNew, models.StatusInvestigating).
		WillReturnRows(incidentRow(mock, stored))

	got, err := repo.UpdateStatus(context.Background(), stored.ID, models.StatusNew, models.StatusInvestigating)

	require.NoError(t, err)
	assert.Equal(t, models.StatusInvestigating, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_NoMatchingRowIsStale(t *testing.T) {
	mock := newMockPool(t)
	repo, _ := newTestIncidentRepository(t, mock)
	id := uuid.New()

	mock.ExpectQuery("UPDATE incidents SET").
		WithArgs(id, models.StatusNew, models.StatusResolved).
		WillReturnRows(mock.NewRows(incidentColumnNames))

	got, err := repo.UpdateStatus(context.Background(), id, models.StatusNew, models.StatusResolved)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, models.ErrStaleStatus)
	assert.False(t, errors.Is(err, models.ErrPersistence))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_ResolvedOnly(t *testing.T) {
	mock := newMockPool(t)
	repo, _ := newTestIncidentRepository(t, mock)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM incidents WHERE id = \\$1 AND status = 'resolved'").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NoMatchingRowIsNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo, _ := newTestIncidentRepository(t, mock)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM incidents").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), id)

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_DriverErrorIsPersistence(t *testing.T) {
	mock := newMockPool(t)
	repo, _ := newTestIncidentRepository(t, mock)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM incidents").WithArgs(id).WillReturnError(errors.New("conn closed"))

	err := repo.Delete(context.Background(), id)

	assert.ErrorIs(t, err, models.ErrPersistence)
}

func TestIncidentCacheKey(t *testing.T) {
	id := uuid.MustParse("5f0c3c4e-3f6a-4d7e-9b0a-2b1c7c9d8e01")

	assert.Equal(t, "incident:5f0c3c4e-3f6a-4d7e-9b0a-2b1c7c9d8e01", incidentCacheKey(id))
	assert.Equal(t, "incident:5f0c3c4e-3f6a-4d7e-9b0a-2b1c7c9d8e01:gen", incidentCacheGenerationKey(id))
}

func TestIncidentCache_FillAndRead(t *testing.T) {
	repo, mr := newTestIncidentRepository(t, nil)
	ctx := context.Background()
	incident := &models.Incident{ID: uuid.New(), Type: "Pollution", Status: models.StatusNew}

	gen, err := repo.CacheGeneration(ctx, incident.ID)
	require.NoError(t, err)
	assert.Zero(t, gen)

	stored, err := repo.SetIncidentCache(ctx, incident, gen)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, time.Minute, mr.TTL(incidentCacheKey(incident.ID)))

	got, err := repo.GetIncidentFromCache(ctx, incident.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, incident.ID, got.ID)
	assert.Equal(t, models.StatusNew, got.Status)
}

func TestIncidentCache_MissReturnsNil(t *testing.T) {
	repo, _ := newTestIncidentRepository(t, nil)

	got, err := repo.GetIncidentFromCache(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIncidentCache_StaleFillAfterInvalidationIsDropped(t *testing.T) {
	repo, mr := newTestIncidentRepository(t, nil)
	ctx := context.Background()
	stale := &models.Incident{ID: uuid.New(), Status: models.StatusNew}

	// читатель запомнил поколение и прочитал старую строку
	gen, err := repo.CacheGeneration(ctx, stale.ID)
	require.NoError(t, err)

	// параллельная смена статуса зафиксирована и инвалидировала кэш
	require.NoError(t, repo.InvalidateIncidentCache(ctx, stale.ID))

	stored, err := repo.SetIncidentCache(ctx, stale, gen)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists(incidentCacheKey(stale.ID)))

	got, err := repo.GetIncidentFromCache(ctx, stale.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// следующее заполнение с новым поколением проходит
	gen, err = repo.CacheGeneration(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	fresh := &models.Incident{ID: stale.ID, Status: models.StatusResolved}
	stored, err = repo.SetIncidentCache(ctx, fresh, gen)
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestInvalidateIncidentCache_RemovesEntry(t *testing.T) {
	repo, mr := newTestIncidentRepository(t, nil)
	ctx := context.Background()
	incident := &models.Incident{ID: uuid.New()}

	_, err := repo.SetIncidentCache(ctx, incident, 0)
	require.NoError(t, err)
	require.True(t, mr.Exists(incidentCacheKey(incident.ID)))

	require.NoError(t, repo.InvalidateIncidentCache(ctx, incident.ID))

	assert.False(t, mr.Exists(incidentCacheKey(incident.ID)))
	assert.Equal(t, cacheGenerationTTL, mr.TTL(incidentCacheGenerationKey(incident.ID)))
}
