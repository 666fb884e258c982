package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/mangrove_watch/internal/models"
)

const (
	webhookQueueKey = "webhook_events"
)

type EventType string

const (
	EventIncidentCreated       EventType = "incident.created"
	EventIncidentStatusChanged EventType = "incident.status_changed"
	EventIncidentDeleted       EventType = "incident.deleted"
	EventPointsAwarded         EventType = "points.awarded"
	EventProfileDeleted        EventType = "profile.deleted"
)

// Причины начисления очков
const (
	ReasonManual          = "manual"
	ReasonResolutionBonus = "resolution_bonus"
)

// WebhookEvent - структура для данных вебхука
type WebhookEvent struct {
	Type           EventType             `json:"type"`
	ActorID        uuid.UUID             `json:"actor_id"`
	IncidentID     *uuid.UUID            `json:"incident_id,omitempty"`
	ProfileID      *uuid.UUID            `json:"profile_id,omitempty"`
	Status         models.IncidentStatus `json:"status,omitempty"`
	PreviousStatus models.IncidentStatus `json:"previous_status,omitempty"`
	Amount         int                   `json:"amount,omitempty"`
	Points         int                   `json:"points,omitempty"`
	Tier           models.Tier           `json:"tier,omitempty"`
	Reason         string                `json:"reason,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
}

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event WebhookEvent) error
}

// RedisWebhookPublisher - реализация WebhookPublisher, использующая Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH + BRPOP в воркере дают FIFO очередь
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}

// MultiPublisher рассылает событие всем издателям и собирает ошибки
type MultiPublisher []WebhookPublisher

func (m MultiPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
