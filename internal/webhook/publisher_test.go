package webhook_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shenikar/mangrove_watch/internal/webhook"
	"github.com/shenikar/mangrove_watch/internal/webhook/mocks"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestMultiPublisher_PublishesToAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockWebhookPublisher(ctrl)
	second := mocks.NewMockWebhookPublisher(ctrl)
	ctx := context.Background()
	event := webhook.WebhookEvent{Type: webhook.EventIncidentCreated}

	brokerErr := errors.New("broker down")
	first.EXPECT().Publish(ctx, event).Return(brokerErr).Times(1)
	second.EXPECT().Publish(ctx, event).Return(nil).Times(1)

	err := webhook.MultiPublisher{first, second}.Publish(ctx, event)

	assert.ErrorIs(t, err, brokerErr)
}

func TestMultiPublisher_Empty(t *testing.T) {
	assert.NoError(t, webhook.MultiPublisher{}.Publish(context.Background(), webhook.WebhookEvent{}))
}
