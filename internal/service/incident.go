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

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.IncidentStatus) (*models.Incident, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]*models.Incident, error)
	CountByStatus(ctx context.Context) (map[models.IncidentStatus]int, error)
	ListRecent(ctx context.Context, limit int) ([]*models.IncidentSummary, error)
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	CacheGeneration(ctx context.Context, id uuid.UUID) (int64, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident, generation int64) (bool, error)
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// IncidentService определяет контракт для бизнес-логики жизненного цикла инцидентов
type IncidentService interface {
	CreateIncident(ctx context.Context, caller models.Caller, input models.NewIncident) (*models.Incident, error)
	GetIncident(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Incident, error)
	ListIncidents(ctx context.Context, caller models.Caller, filter models.IncidentFilter) ([]*models.Incident, error)
	ListMyReports(ctx context.Context, caller models.Caller) ([]*models.Incident, error)
	SetStatus(ctx context.Context, caller models.Caller, id uuid.UUID, status models.IncidentStatus) (*models.Incident, error)
	DeleteIncident(ctx context.Context, caller models.Caller, id uuid.UUID) error
}

type incidentService struct {
	repo      IncidentRepository
	tx        TxManager
	points    *PointsEngine
	publisher webhook.WebhookPublisher
	logger    *logrus.Logger
	validate  *validator.Validate
}

func NewIncidentService(repo IncidentRepository, tx TxManager, points *PointsEngine, publisher webhook.WebhookPublisher, logger *logrus.Logger) IncidentService {
	return &incidentService{
		repo:      repo,
		tx:        tx,
		points:    points,
		publisher: publisher,
		logger:    logger,
		validate:  newValidator(),
	}
}

// CreateIncident создает инцидент от имени вызывающего со статусом new
func (s *incidentService) CreateIncident(ctx context.Context, caller models.Caller, input models.NewIncident) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "CreateIncident",
		"reporter_id": caller.ProfileID,
	})
	log.Info("Attempting to create a new incident")

	input.Type = strings.TrimSpace(input.Type)
	input.Location = strings.TrimSpace(input.Location)
	input.Description = strings.TrimSpace(input.Description)
	input.Severity = strings.TrimSpace(input.Severity)
	if err := validateStruct(s.validate, input); err != nil {
		log.WithError(err).Warn("Incident validation failed")
		return nil, err
	}

	incident := &models.Incident{
		Type:        input.Type,
		Location:    input.Location,
		Description: input.Description,
		Severity:    models.Severity(input.Severity),
		Status:      models.StatusNew,
		ReporterID:  caller.ProfileID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	publish(ctx, s.publisher, log, webhook.WebhookEvent{
		Type:       webhook.EventIncidentCreated,
		ActorID:    caller.ProfileID,
		IncidentID: &incident.ID,
		Status:     incident.Status,
		Timestamp:  time.Now().UTC(),
	})
	return incident, nil
}

// GetIncident получает инцидент по ID, сначала из кеша. Доступен автору и администратору.
func (s *incidentService) GetIncident(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Debug("Fetching incident by ID")

	incident, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident cache")
	}

	if incident == nil {
		// поколение читается до бд: инвалидация во время чтения отменит запись в кэш
		generation, genErr := s.repo.CacheGeneration(ctx, id)
		if genErr != nil {
			log.WithError(genErr).Warn("Failed to read incident cache generation")
		}

		incident, err = s.repo.GetByID(ctx, id)
		if err != nil {
			log.WithError(err).Error("Failed to get incident in repository")
			return nil, fmt.Errorf("service: could not get incident: %w", err)
		}

		if genErr == nil {
			stored, err := s.repo.SetIncidentCache(ctx, incident, generation)
			if err != nil {
				log.WithError(err).Warn("Failed to cache incident")
			} else if !stored {
				log.Debug("Incident changed while loading, cache fill skipped")
			}
		}
	}

	if !caller.CanAccess(incident.ReporterID) {
		return nil, models.ErrAuthorization
	}
	return incident, nil
}

// ListIncidents возвращает список инцидентов с пагинацией, только для администратора
func (s *incidentService) ListIncidents(ctx context.Context, caller models.Caller, filter models.IncidentFilter) ([]*models.Incident, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &models.ValidationError{Field: "status", Message: "must be one of: new investigating resolved dismissed"}
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	log := s.logger.WithFields(logrus.Fields{
		"service":   "incident",
		"method":    "ListIncidents",
		"status":    filter.Status,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
	log.Info("Listing incidents")

	incidents, err := s.repo.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return incidents, nil
}

// ListMyReports возвращает инциденты вызывающего, новые первыми
func (s *incidentService) ListMyReports(ctx context.Context, caller models.Caller) ([]*models.Incident, error) {
	incidents, err := s.repo.ListByReporter(ctx, caller.ProfileID)
	if err != nil {
		s.logger.WithField("reporter_id", caller.ProfileID).WithError(err).Error("Failed to list reporter incidents")
		return nil, fmt.Errorf("service: could not list reports: %w", err)
	}
	return incidents, nil
}

// SetStatus переводит инцидент в новый статус. При переходе в resolved автор получает
// ResolutionBonus в той же транзакции; статус пишется раньше очков.
func (s *incidentService) SetStatus(ctx context.Context, caller models.Caller, id uuid.UUID, status models.IncidentStatus) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "SetStatus",
		"incident_id": id,
		"status":      status,
	})

	if err := requireAdmin(caller); err != nil {
		log.Warn("Non-admin caller attempted to change incident status")
		return nil, err
	}
	if !status.Valid() {
		return nil, &models.ValidationError{Field: "status", Message: "must be one of: new investigating resolved dismissed"}
	}

	var (
		previous models.IncidentStatus
		updated  *models.Incident
		reporter *models.Profile
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous = current.Status

		if !models.CanTransition(current.Status, status) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, current.Status, status)
		}

		updated, err = s.repo.UpdateStatus(ctx, id, current.Status, status)
		if errors.Is(err, models.ErrStaleStatus) {
			return fmt.Errorf("%w: %v", models.ErrInvalidTransition, err)
		}
		if err != nil {
			return err
		}

		if status != models.StatusResolved {
			return nil
		}
		reporter, err = s.points.Apply(ctx, current.ReporterID, ResolutionBonus)
		if errors.Is(err, models.ErrNotFound) {
			log.WithField("reporter_id", current.ReporterID).Warn("Reporter profile is gone, resolution bonus skipped")
			return nil
		}
		return err
	})
	if err != nil {
		log.WithError(err).Warn("Failed to change incident status")
		return nil, fmt.Errorf("service: could not change incident status: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.WithField("previous_status", previous).Info("Incident status changed")
	publish(ctx, s.publisher, log, webhook.WebhookEvent{
		Type:           webhook.EventIncidentStatusChanged,
		ActorID:        caller.ProfileID,
		IncidentID:     &updated.ID,
		Status:         updated.Status,
		PreviousStatus: previous,
		Timestamp:      time.Now().UTC(),
	})
	if reporter != nil {
		publish(ctx, s.publisher, log, pointsAwardedEvent(caller.ProfileID, reporter, ResolutionBonus, webhook.ReasonResolutionBonus))
	}
	return updated, nil
}

// DeleteIncident удаляет инцидент. Разрешено только для resolved, очки автора сохраняются.
func (s *incidentService) DeleteIncident(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "DeleteIncident",
		"incident_id": id,
	})
	log.Info("Attempting to delete incident")

	if err := requireAdmin(caller); err != nil {
		log.Warn("Non-admin caller attempted to delete an incident")
		return err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != models.StatusResolved {
			return fmt.Errorf("%w: only resolved incidents can be deleted, current status is %s", models.ErrInvalidState, current.Status)
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		log.WithError(err).Warn("Failed to delete incident")
		return fmt.Errorf("service: could not delete incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident deleted successfully")
	publish(ctx, s.publisher, log, webhook.WebhookEvent{
		Type:       webhook.EventIncidentDeleted,
		ActorID:    caller.ProfileID,
		IncidentID: &id,
		Status:     models.StatusResolved,
		Timestamp:  time.Now().UTC(),
	})
	return nil
}
