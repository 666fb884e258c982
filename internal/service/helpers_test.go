package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/shenikar/mangrove_watch/internal/service/mocks"
	webhook_mocks "github.com/shenikar/mangrove_watch/internal/webhook/mocks"
	"github.com/sirupsen/logrus"
	"go.uber.org/mock/gomock"
)

// fakeTx выполняет функцию сразу, считая вложенность вызовов
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type testDeps struct {
	incidents *mocks.MockIncidentRepository
	profiles  *mocks.MockProfileRepository
	publisher *webhook_mocks.MockWebhookPublisher
	tx        *fakeTx
	logger    *logrus.Logger
	points    *PointsEngine
}

func newTestDeps(t *testing.T) *testDeps {
	ctrl := gomock.NewController(t)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	d := &testDeps{
		incidents: mocks.NewMockIncidentRepository(ctrl),
		profiles:  mocks.NewMockProfileRepository(ctrl),
		publisher: webhook_mocks.NewMockWebhookPublisher(ctrl),
		tx:        &fakeTx{},
		logger:    logger,
	}
	d.points = NewPointsEngine(d.profiles, d.tx, d.publisher, logger)
	return d
}

func adminCaller() models.Caller {
	return models.Caller{ProfileID: uuid.New(), Role: models.RoleAdmin}
}

func userCaller() models.Caller {
	return models.Caller{ProfileID: uuid.New(), Role: models.RoleUser}
}
