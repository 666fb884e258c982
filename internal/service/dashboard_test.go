package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDashboardStats(t *testing.T) {
	d := newTestDeps(t)
	service := NewDashboardService(d.incidents, d.profiles, d.logger)
	ctx := context.Background()

	recent := []*models.IncidentSummary{
		{ID: uuid.New(), Type: "Pollution", ReporterName: "Amina"},
		{ID: uuid.New(), Type: "Illegal Logging", ReporterName: ""},
	}
	d.incidents.EXPECT().CountByStatus(ctx).Return(map[models.IncidentStatus]int{
		models.StatusNew:      4,
		models.StatusResolved: 2,
	}, nil)
	d.profiles.EXPECT().Count(ctx).Return(7, nil)
	d.profiles.EXPECT().TotalPoints(ctx).Return(1250, nil)
	d.incidents.EXPECT().ListRecent(ctx, 5).Return(recent, nil)

	stats, err := service.Stats(ctx, adminCaller())

	require.NoError(t, err)
	assert.Equal(t, 4, stats.NewIncidents)
	assert.Equal(t, 0, stats.InvestigatingIncidents)
	assert.Equal(t, 2, stats.ResolvedIncidents)
	assert.Equal(t, 0, stats.DismissedIncidents)
	assert.Equal(t, 6, stats.TotalIncidents)
	assert.Equal(t, 7, stats.TotalProfiles)
	assert.Equal(t, 1250, stats.TotalPoints)
	require.Len(t, stats.RecentIncidents, 2)
	assert.Equal(t, "Amina", stats.RecentIncidents[0].ReporterName)
	assert.Equal(t, "Unknown", stats.RecentIncidents[1].ReporterName)
}

func TestDashboardStats_AdminOnly(t *testing.T) {
	d := newTestDeps(t)
	service := NewDashboardService(d.incidents, d.profiles, d.logger)
	d.incidents.EXPECT().CountByStatus(gomock.Any()).Times(0)

	_, err := service.Stats(context.Background(), userCaller())

	assert.ErrorIs(t, err, models.ErrAuthorization)
}

func TestDashboardStats_RepositoryError(t *testing.T) {
	d := newTestDeps(t)
	service := NewDashboardService(d.incidents, d.profiles, d.logger)
	d.incidents.EXPECT().CountByStatus(gomock.Any()).Return(nil, models.ErrPersistence)

	_, err := service.Stats(context.Background(), adminCaller())

	assert.ErrorIs(t, err, models.ErrPersistence)
}
