package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/shenikar/mangrove_watch/internal/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// expectIncrements эмулирует строку таблицы profiles для IncrementPoints/SetPoints
func expectIncrements(d *testDeps, stored *models.Profile) {
	d.profiles.EXPECT().
		IncrementPoints(gomock.Any(), stored.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, amount int) (*models.Profile, error) {
			stored.Points += amount
			p := *stored
			return &p, nil
		}).AnyTimes()
	d.profiles.EXPECT().
		SetPoints(gomock.Any(), stored.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, points int, tier models.Tier) error {
			stored.Points = points
			stored.Tier = tier
			return nil
		}).AnyTimes()
}

func TestAwardPoints_TwiceCrossesThreshold(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	caller := adminCaller()
	stored := &models.Profile{ID: uuid.New(), Points: 480, Tier: models.TierBronze}
	expectIncrements(d, stored)

	var events []webhook.WebhookEvent
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).
		Do(func(_ context.Context, e webhook.WebhookEvent) { events = append(events, e) }).
		Return(nil).Times(2)

	first, err := d.points.AwardPoints(ctx, caller, stored.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 530, first.Points)
	assert.Equal(t, models.TierSilver, first.Tier)

	second, err := d.points.AwardPoints(ctx, caller, stored.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 580, second.Points)
	assert.Equal(t, models.TierSilver, second.Tier)

	assert.Equal(t, 580, stored.Points) // ровно +100 за два начисления
	assert.Equal(t, models.TierSilver, stored.Tier)
	require.Len(t, events, 2)
	assert.Equal(t, webhook.ReasonManual, events[0].Reason)
	assert.Equal(t, caller.ProfileID, events[0].ActorID)
}

func TestAwardPoints_NonAdmin(t *testing.T) {
	d := newTestDeps(t)

	_, err := d.points.AwardPoints(context.Background(), userCaller(), uuid.New(), 50)

	assert.ErrorIs(t, err, models.ErrAuthorization)
	assert.Zero(t, d.tx.calls)
}

func TestAwardPoints_NonPositiveAmount(t *testing.T) {
	d := newTestDeps(t)

	for _, amount := range []int{0, -10} {
		_, err := d.points.AwardPoints(context.Background(), adminCaller(), uuid.New(), amount)

		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "amount", verr.Field)
	}
}

func TestAwardPoints_AmountTooLarge(t *testing.T) {
	d := newTestDeps(t)
	d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	for _, amount := range []int{MaxAward + 1, math.MaxInt32 + 1} {
		_, err := d.points.AwardPoints(context.Background(), adminCaller(), uuid.New(), amount)

		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "amount", verr.Field)
		assert.False(t, errors.Is(err, models.ErrPersistence))
	}
	assert.Zero(t, d.tx.calls)
}

func TestAwardPoints_MaxAwardAccepted(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	stored := &models.Profile{ID: uuid.New(), Tier: models.TierBronze}
	expectIncrements(d, stored)
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	profile, err := d.points.AwardPoints(ctx, adminCaller(), stored.ID, MaxAward)

	require.NoError(t, err)
	assert.Equal(t, MaxAward, profile.Points)
}

func TestAwardPoints_FallbackOverflowIsValidation(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	gomock.InOrder(
		d.profiles.EXPECT().IncrementPoints(gomock.Any(), id, 100).Return(nil, models.ErrIncrementUnsupported),
		d.profiles.EXPECT().GetByID(gomock.Any(), id).Return(&models.Profile{ID: id, Points: math.MaxInt32 - 10, Tier: models.TierPlatinum}, nil),
	)
	d.profiles.EXPECT().SetPoints(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	_, err := d.points.AwardPoints(context.Background(), adminCaller(), id, 100)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)
}

func TestAwardPoints_NotFound(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	id := uuid.New()

	d.profiles.EXPECT().IncrementPoints(gomock.Any(), id, 50).
		Return(nil, fmt.Errorf("profile %s: %w", id, models.ErrNotFound)).Times(1)
	d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	_, err := d.points.AwardPoints(ctx, adminCaller(), id, 50)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAwardPoints_FallbackToReadThenWrite(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	id := uuid.New()

	gomock.InOrder(
		d.profiles.EXPECT().IncrementPoints(gomock.Any(), id, 100).Return(nil, models.ErrIncrementUnsupported),
		d.profiles.EXPECT().GetByID(gomock.Any(), id).Return(&models.Profile{ID: id, Points: 1450, Tier: models.TierSilver}, nil),
		d.profiles.EXPECT().SetPoints(gomock.Any(), id, 1550, models.TierGold).Return(nil),
	)
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	profile, err := d.points.AwardPoints(ctx, adminCaller(), id, 100)

	require.NoError(t, err)
	assert.Equal(t, 1550, profile.Points)
	assert.Equal(t, models.TierGold, profile.Tier)
	assert.Equal(t, 2, d.tx.calls) // внешняя транзакция и savepoint инкремента
}

func TestAwardPoints_PersistenceFailure(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	id := uuid.New()
	storeErr := fmt.Errorf("set points: %w", models.ErrPersistence)

	d.profiles.EXPECT().IncrementPoints(gomock.Any(), id, 600).Return(&models.Profile{ID: id, Points: 600, Tier: models.TierBronze}, nil)
	d.profiles.EXPECT().SetPoints(gomock.Any(), id, 600, models.TierSilver).Return(storeErr)
	d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	profile, err := d.points.AwardPoints(ctx, adminCaller(), id, 600)

	assert.Nil(t, profile)
	assert.ErrorIs(t, err, models.ErrPersistence)
}

func TestAwardPoints_PublishFailureDoesNotFail(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	id := uuid.New()

	d.profiles.EXPECT().IncrementPoints(gomock.Any(), id, 10).Return(&models.Profile{ID: id, Points: 10, Tier: models.TierBronze}, nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(errors.New("redis down"))

	profile, err := d.points.AwardPoints(ctx, adminCaller(), id, 10)

	require.NoError(t, err)
	assert.Equal(t, 10, profile.Points)
}
