package service

import (
	"context"
	"fmt"

	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	recentIncidentsLimit = 5
	unknownReporter      = "Unknown"
)

// DashboardService - сводные показатели для панели администратора
type DashboardService interface {
	Stats(ctx context.Context, caller models.Caller) (*models.DashboardStats, error)
}

type dashboardService struct {
	incidents IncidentRepository
	profiles  ProfileRepository
	logger    *logrus.Logger
}

func NewDashboardService(incidents IncidentRepository, profiles ProfileRepository, logger *logrus.Logger) DashboardService {
	return &dashboardService{
		incidents: incidents,
		profiles:  profiles,
		logger:    logger,
	}
}

// Stats считается при каждом запросе, кеша нет
func (s *dashboardService) Stats(ctx context.Context, caller models.Caller) (*models.DashboardStats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	log := s.logger.WithFields(logrus.Fields{
		"service": "dashboard",
		"method":  "Stats",
	})

	counts, err := s.incidents.CountByStatus(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to count incidents by status")
		return nil, fmt.Errorf("service: could not count incidents: %w", err)
	}

	profiles, err := s.profiles.Count(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to count profiles")
		return nil, fmt.Errorf("service: could not count profiles: %w", err)
	}

	points, err := s.profiles.TotalPoints(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to sum points")
		return nil, fmt.Errorf("service: could not sum points: %w", err)
	}

	recent, err := s.incidents.ListRecent(ctx, recentIncidentsLimit)
	if err != nil {
		log.WithError(err).Error("Failed to list recent incidents")
		return nil, fmt.Errorf("service: could not list recent incidents: %w", err)
	}
	for _, r := range recent {
		if r.ReporterName == "" {
			r.ReporterName = unknownReporter
		}
	}

	stats := &models.DashboardStats{
		NewIncidents:           counts[models.StatusNew],
		InvestigatingIncidents: counts[models.StatusInvestigating],
		ResolvedIncidents:      counts[models.StatusResolved],
		DismissedIncidents:     counts[models.StatusDismissed],
		TotalProfiles:          profiles,
		TotalPoints:            points,
		RecentIncidents:        recent,
	}
	for _, c := range counts {
		stats.TotalIncidents += c
	}
	return stats, nil
}
