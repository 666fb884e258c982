package service

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// LeaderboardService - рейтинг участников по очкам
type LeaderboardService interface {
	TopContributors(ctx context.Context, n int) ([]models.Contributor, error)
	Tiers() []models.TierLevel
}

type leaderboardService struct {
	repo   ProfileRepository
	logger *logrus.Logger
}

func NewLeaderboardService(repo ProfileRepository, logger *logrus.Logger) LeaderboardService {
	return &leaderboardService{repo: repo, logger: logger}
}

// TopContributors возвращает n профилей с наибольшим числом очков.
// При равенстве очков выше тот, кто присоединился раньше.
func (s *leaderboardService) TopContributors(ctx context.Context, n int) ([]models.Contributor, error) {
	if n <= 0 {
		n = defaultLeaderboardSize
	}
	n = min(n, maxLeaderboardSize)

	profiles, err := s.repo.TopByPoints(ctx, n)
	if err != nil {
		s.logger.WithField("method", "TopContributors").WithError(err).Error("Failed to load leaderboard")
		return nil, fmt.Errorf("service: could not load leaderboard: %w", err)
	}

	// порядок не зависит от того, как отсортировало хранилище
	profiles = slices.Clone(profiles)
	slices.SortStableFunc(profiles, compareContributors)
	if len(profiles) > n {
		profiles = profiles[:n]
	}

	contributors := make([]models.Contributor, len(profiles))
	for i, p := range profiles {
		contributors[i] = models.Contributor{Rank: i + 1, Profile: p}
	}
	return contributors, nil
}

func (s *leaderboardService) Tiers() []models.TierLevel {
	return slices.Clone(models.Tiers)
}

func compareContributors(a, b *models.Profile) int {
	if a.Points != b.Points {
		return b.Points - a.Points
	}
	if c := a.JoinDate.Compare(b.JoinDate); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}
