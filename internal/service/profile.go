package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/shenikar/mangrove_watch/internal/webhook"
	"github.com/sirupsen/logrus"
)

// ProfileRepository определяет контракт для работы с бд профилей
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, pageSize int) ([]*models.Profile, error)
	IncrementPoints(ctx context.Context, id uuid.UUID, amount int) (*models.Profile, error)
	SetPoints(ctx context.Context, id uuid.UUID, points int, tier models.Tier) error
	TopByPoints(ctx context.Context, limit int) ([]*models.Profile, error)
	Count(ctx context.Context) (int, error)
	TotalPoints(ctx context.Context) (int, error)
}

// ProfileService определяет контракт для управления профилями и начисления очков
type ProfileService interface {
	EnsureProfile(ctx context.Context, caller models.Caller, input models.NewProfile) (*models.Profile, bool, error)
	GetProfile(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, caller models.Caller, id uuid.UUID, update models.ProfileUpdate) (*models.Profile, error)
	ListProfiles(ctx context.Context, caller models.Caller, page, pageSize int) ([]*models.Profile, error)
	DeleteProfile(ctx context.Context, caller models.Caller, id uuid.UUID) error
	AwardPoints(ctx context.Context, caller models.Caller, id uuid.UUID, amount int) (*models.Profile, error)
}

type profileService struct {
	repo      ProfileRepository
	points    *PointsEngine
	publisher webhook.WebhookPublisher
	logger    *logrus.Logger
	validate  *validator.Validate
}

func NewProfileService(repo ProfileRepository, points *PointsEngine, publisher webhook.WebhookPublisher, logger *logrus.Logger) ProfileService {
	return &profileService{
		repo:      repo,
		points:    points,
		publisher: publisher,
		logger:    logger,
		validate:  newValidator(),
	}
}

// EnsureProfile возвращает профиль вызывающего, создавая его при первом входе.
// Второе значение сообщает, был ли профиль создан.
func (s *profileService) EnsureProfile(ctx context.Context, caller models.Caller, input models.NewProfile) (*models.Profile, bool, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "profile",
		"method":     "EnsureProfile",
		"profile_id": caller.ProfileID,
	})

	existing, err := s.repo.GetByID(ctx, caller.ProfileID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		log.WithError(err).Error("Failed to look up profile")
		return nil, false, fmt.Errorf("service: could not get profile: %w", err)
	}

	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.TrimSpace(input.Email)
	input.Location = strings.TrimSpace(input.Location)
	if err := validateStruct(s.validate, input); err != nil {
		log.WithError(err).Warn("Profile validation failed")
		return nil, false, err
	}

	profileType := models.ProfileType(input.Type)
	if profileType == "" {
		profileType = models.ProfileTypeIndividual
	}
	role := caller.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}

	profile := &models.Profile{
		ID:       caller.ProfileID,
		FullName: input.FullName,
		Email:    input.Email,
		Location: input.Location,
		Type:     profileType,
		Role:     role,
		Points:   0,
		Tier:     models.TierFor(0),
		JoinDate: time.Now().UTC(),
	}
	err = s.repo.Create(ctx, profile)
	if errors.Is(err, models.ErrAlreadyExists) {
		// параллельный первый вход уже создал профиль
		log.Info("Profile was created concurrently, reading it back")
		existing, err := s.repo.GetByID(ctx, caller.ProfileID)
		if err != nil {
			log.WithError(err).Error("Failed to read concurrently created profile")
			return nil, false, fmt.Errorf("service: could not get profile: %w", err)
		}
		return existing, false, nil
	}
	if err != nil {
		log.WithError(err).Error("Failed to create profile in repository")
		return nil, false, fmt.Errorf("service: could not create profile: %w", err)
	}

	log.Info("Profile created on first sign-in")
	return profile, true, nil
}

// GetProfile доступен владельцу профиля и администратору
func (s *profileService) GetProfile(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Profile, error) {
	if !caller.CanAccess(id) {
		return nil, models.ErrAuthorization
	}

	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.WithField("profile_id", id).WithError(err).Warn("Failed to get profile")
		return nil, fmt.Errorf("service: could not get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile меняет имя, местоположение и аватар. Очки, уровень и роль здесь не меняются.
func (s *profileService) UpdateProfile(ctx context.Context, caller models.Caller, id uuid.UUID, update models.ProfileUpdate) (*models.Profile, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "profile",
		"method":     "UpdateProfile",
		"profile_id": id,
	})

	if !caller.CanAccess(id) {
		log.Warn("Caller attempted to update a foreign profile")
		return nil, models.ErrAuthorization
	}

	if update.FullName != nil {
		trimmed := strings.TrimSpace(*update.FullName)
		if trimmed == "" {
			return nil, &models.ValidationError{Field: "full_name", Message: "is required"}
		}
		update.FullName = &trimmed
	}
	if err := validateStruct(s.validate, update); err != nil {
		log.WithError(err).Warn("Profile update validation failed")
		return nil, err
	}

	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent profile")
		return nil, fmt.Errorf("service: profile with id %s not found for update: %w", id, err)
	}

	if update.FullName != nil {
		profile.FullName = *update.FullName
	}
	if update.Location != nil {
		profile.Location = strings.TrimSpace(*update.Location)
	}
	if update.AvatarURL != nil {
		profile.AvatarURL = strings.TrimSpace(*update.AvatarURL)
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		log.WithError(err).Error("Failed to update profile in repository")
		return nil, fmt.Errorf("service: could not update profile: %w", err)
	}

	log.Info("Profile updated successfully")
	return profile, nil
}

// ListProfiles возвращает профили с пагинацией, только для администратора
func (s *profileService) ListProfiles(ctx context.Context, caller models.Caller, page, pageSize int) ([]*models.Profile, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)

	log := s.logger.WithFields(logrus.Fields{
		"service":   "profile",
		"method":    "ListProfiles",
		"page":      page,
		"page_size": pageSize,
	})

	profiles, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list profiles from repository")
		return nil, fmt.Errorf("service: could not list profiles: %w", err)
	}
	return profiles, nil
}

// DeleteProfile безвозвратно удаляет профиль. Инциденты автора сохраняются.
func (s *profileService) DeleteProfile(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "profile",
		"method":     "DeleteProfile",
		"profile_id": id,
	})

	if err := requireAdmin(caller); err != nil {
		log.Warn("Non-admin caller attempted to delete a profile")
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to delete profile in repository")
		return fmt.Errorf("service: could not delete profile: %w", err)
	}

	log.Info("Profile deleted")
	publish(ctx, s.publisher, log, webhook.WebhookEvent{
		Type:      webhook.EventProfileDeleted,
		ActorID:   caller.ProfileID,
		ProfileID: &id,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (s *profileService) AwardPoints(ctx context.Context, caller models.Caller, id uuid.UUID, amount int) (*models.Profile, error) {
	return s.points.AwardPoints(ctx, caller, id, amount)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
