package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/shenikar/mangrove_watch/internal/webhook"
	"github.com/sirupsen/logrus"
)

// ResolutionBonus - очки автору за инцидент, переведенный в resolved
const ResolutionBonus = 50

// MaxAward - верхняя граница одного начисления
const MaxAward = 1_000_000

// maxPoints - предел колонки profiles.points (INTEGER)
const maxPoints = math.MaxInt32

// PointsEngine начисляет очки и пересчитывает уровень профиля
type PointsEngine struct {
	repo      ProfileRepository
	tx        TxManager
	publisher webhook.WebhookPublisher
	logger    *logrus.Logger
}

func NewPointsEngine(repo ProfileRepository, tx TxManager, publisher webhook.WebhookPublisher, logger *logrus.Logger) *PointsEngine {
	return &PointsEngine{
		repo:      repo,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
	}
}

// AwardPoints - ручное начисление очков администратором
func (e *PointsEngine) AwardPoints(ctx context.Context, caller models.Caller, profileID uuid.UUID, amount int) (*models.Profile, error) {
	log := e.logger.WithFields(logrus.Fields{
		"service":    "points",
		"method":     "AwardPoints",
		"profile_id": profileID,
		"amount":     amount,
	})

	if err := requireAdmin(caller); err != nil {
		log.Warn("Non-admin caller attempted to award points")
		return nil, err
	}

	profile, err := e.Apply(ctx, profileID, amount)
	if err != nil {
		log.WithError(err).Error("Failed to award points")
		return nil, fmt.Errorf("service: could not award points: %w", err)
	}

	log.WithField("tier", profile.Tier).Info("Points awarded successfully")
	publish(ctx, e.publisher, log, pointsAwardedEvent(caller.ProfileID, profile, amount, webhook.ReasonManual))
	return profile, nil
}

// Apply прибавляет amount к очкам профиля и пересчитывает уровень в одной транзакции.
// Событие не публикуется: вызывающий может быть внутри внешней транзакции.
func (e *PointsEngine) Apply(ctx context.Context, profileID uuid.UUID, amount int) (*models.Profile, error) {
	if amount <= 0 {
		return nil, &models.ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if amount > MaxAward {
		return nil, &models.ValidationError{Field: "amount", Message: fmt.Sprintf("must not exceed %d", MaxAward)}
	}

	var updated *models.Profile
	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = e.increment(ctx, profileID, amount)
		if errors.Is(err, models.ErrIncrementUnsupported) {
			e.logger.WithField("profile_id", profileID).Warn("Atomic increment unavailable, falling back to read-then-write")
			updated, err = e.readThenWrite(ctx, profileID, amount)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// increment выполняется в собственном savepoint, чтобы неудача не ломала внешнюю транзакцию
func (e *PointsEngine) increment(ctx context.Context, profileID uuid.UUID, amount int) (*models.Profile, error) {
	var profile *models.Profile
	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		profile, err = e.repo.IncrementPoints(ctx, profileID, amount)
		if err != nil {
			return err
		}
		if tier := models.TierFor(profile.Points); tier != profile.Tier {
			profile.Tier = tier
			return e.repo.SetPoints(ctx, profileID, profile.Points, tier)
		}
		return nil
	})
	return profile, err
}

func (e *PointsEngine) readThenWrite(ctx context.Context, profileID uuid.UUID, amount int) (*models.Profile, error) {
	profile, err := e.repo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.Points > maxPoints-amount {
		return nil, &models.ValidationError{Field: "amount", Message: "points total would overflow"}
	}
	profile.Points += amount
	profile.Tier = models.TierFor(profile.Points)
	if err := e.repo.SetPoints(ctx, profileID, profile.Points, profile.Tier); err != nil {
		return nil, err
	}
	return profile, nil
}

func pointsAwardedEvent(actorID uuid.UUID, profile *models.Profile, amount int, reason string) webhook.WebhookEvent {
	return webhook.WebhookEvent{
		Type:      webhook.EventPointsAwarded,
		ActorID:   actorID,
		ProfileID: &profile.ID,
		Amount:    amount,
		Points:    profile.Points,
		Tier:      profile.Tier,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}
