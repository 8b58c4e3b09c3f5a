package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/service"
	"github.com/expotoworld/expotoworld-sub002/internal/mocks"
	authconstant "github.com/expotoworld/expotoworld-sub002/pkg/constant"
)

func TestRateLimiter_Allow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockRateLimitRepository(ctrl)
	limiter := service.NewRateLimiter(mockRepo, 5, 1)
	ctx := context.Background()

	t.Run("allows below the ceiling", func(t *testing.T) {
		mockRepo.EXPECT().
			CountSince(gomock.Any(), "10.0.0.1", authconstant.ActorUser, authconstant.ChannelEmail, gomock.Any()).
			Return(4, nil)

		allowed, err := limiter.Allow(ctx, "10.0.0.1", authconstant.ActorUser, authconstant.ChannelEmail)
		assert.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("denies at the ceiling", func(t *testing.T) {
		mockRepo.EXPECT().
			CountSince(gomock.Any(), "10.0.0.1", authconstant.ActorUser, authconstant.ChannelEmail, gomock.Any()).
			Return(5, nil)

		allowed, err := limiter.Allow(ctx, "10.0.0.1", authconstant.ActorUser, authconstant.ChannelEmail)
		assert.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("queries the trailing window", func(t *testing.T) {
		var since time.Time
		mockRepo.EXPECT().
			CountSince(gomock.Any(), "10.0.0.1", authconstant.ActorUser, authconstant.ChannelEmail, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _, _ string, s time.Time) (int, error) {
				since = s
				return 0, nil
			})

		_, err := limiter.Allow(ctx, "10.0.0.1", authconstant.ActorUser, authconstant.ChannelEmail)
		assert.NoError(t, err)

		expected := time.Now().UTC().Add(-time.Hour)
		assert.WithinDuration(t, expected, since, 2*time.Second)
	})
}

func TestRateLimiter_Record(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockRateLimitRepository(ctrl)
	limiter := service.NewRateLimiter(mockRepo, 5, 1)

	var windowStart time.Time
	mockRepo.EXPECT().
		Increment(gomock.Any(), "10.0.0.1", authconstant.ActorUser, authconstant.ChannelPhone, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _, _ string, ws time.Time) error {
			windowStart = ws
			return nil
		})

	err := limiter.Record(context.Background(), "10.0.0.1", authconstant.ActorUser, authconstant.ChannelPhone)
	assert.NoError(t, err)

	// Buckets are hour-aligned, not sliding.
	assert.Equal(t, time.Now().UTC().Truncate(time.Hour), windowStart)
	assert.Zero(t, windowStart.Minute())
	assert.Zero(t, windowStart.Second())
}

// TestRateLimiter_HourBoundaryBehavior documents the accepted consequence of
// hour-aligned windows: requests recorded in the previous window still count
// toward the trailing-hour sum, but once a bucket's window_start falls outside
// the trailing hour its requests stop counting entirely. A burst just before
// the boundary plus a burst just after can therefore each pass the check.
func TestRateLimiter_HourBoundaryBehavior(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockRateLimitRepository(ctrl)
	limiter := service.NewRateLimiter(mockRepo, 5, 1)
	ctx := context.Background()

	// All five prior requests landed in a bucket whose window_start is now
	// older than the trailing hour: the aggregate comes back zero and a sixth
	// request is allowed.
	mockRepo.EXPECT().
		CountSince(gomock.Any(), "10.0.0.1", authconstant.ActorUser, authconstant.ChannelEmail, gomock.Any()).
		Return(0, nil)

	allowed, err := limiter.Allow(ctx, "10.0.0.1", authconstant.ActorUser, authconstant.ChannelEmail)
	assert.NoError(t, err)
	assert.True(t, allowed)
}
