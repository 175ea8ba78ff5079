package actionlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"reserveguard/internal/actionlog"
	"reserveguard/internal/actionlog/mocks"
	"reserveguard/internal/platform/logger"
	"reserveguard/pkg/platform/circuit"
)

func TestBreakerPublisher(t *testing.T) {
	ctx := context.Background()
	entry := actionlog.NewEntry("bankA", actionlog.ActionThresholdFail, time.Unix(1_700_000_000, 0))
	brokerDown := errors.New("broker down")

	t.Run("skips the publisher once the circuit opens", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := mocks.NewMockPublisher(ctrl)
		now := time.Unix(1_700_000_000, 0)
		breaker := circuit.New("kafka",
			circuit.WithFailureThreshold(2),
			circuit.WithCooldown(time.Minute),
			circuit.WithClock(func() time.Time { return now }),
		)
		p := actionlog.NewBreakerPublisher(next, breaker, logger.Discard())

		next.EXPECT().Publish(gomock.Any(), entry).Return(brokerDown).Times(2)
		assert.ErrorIs(t, p.Publish(ctx, entry), brokerDown)
		assert.ErrorIs(t, p.Publish(ctx, entry), brokerDown)
		assert.True(t, breaker.IsOpen())

		assert.ErrorIs(t, p.Publish(ctx, entry), actionlog.ErrPublisherUnavailable)

		now = now.Add(time.Minute)
		next.EXPECT().Publish(gomock.Any(), entry).Return(nil)
		assert.NoError(t, p.Publish(ctx, entry))
		assert.False(t, breaker.IsOpen())
	})

	t.Run("success keeps the circuit closed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := mocks.NewMockPublisher(ctrl)
		breaker := circuit.New("kafka", circuit.WithFailureThreshold(2))
		p := actionlog.NewBreakerPublisher(next, breaker, logger.Discard())

		gomock.InOrder(
			next.EXPECT().Publish(gomock.Any(), entry).Return(brokerDown),
			next.EXPECT().Publish(gomock.Any(), entry).Return(nil),
			next.EXPECT().Publish(gomock.Any(), entry).Return(brokerDown),
		)
		assert.Error(t, p.Publish(ctx, entry))
		assert.NoError(t, p.Publish(ctx, entry))
		assert.Error(t, p.Publish(ctx, entry))
		assert.False(t, breaker.IsOpen())
	})
}
