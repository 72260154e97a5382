//go:build integration

package runlock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reclass/internal/runlock"
	id "reclass/pkg/domain"
	"reclass/pkg/platform/sentinel"
	"reclass/pkg/testutil/containers"
)

// =============================================================================
// Redis Lock Integration Suite
// =============================================================================

type RedisLockSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	lock  *runlock.RedisLock
}

func TestRedisLockSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockSuite))
}

func (s *RedisLockSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisLockSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.lock = runlock.NewRedisLock(s.redis.Client, time.Minute)
}

func (s *RedisLockSuite) TestAcquire() {
	ctx := context.Background()

	s.Run("first acquire succeeds", func() {
		s.NoError(s.lock.Acquire(ctx, id.NewRunID()))
	})

	s.Run("second acquire fails while held", func() {
		s.ErrorIs(s.lock.Acquire(ctx, id.NewRunID()), sentinel.ErrRunActive)
	})

	s.Run("lock expires after its TTL", func() {
		s.Require().NoError(s.redis.FlushAll(ctx))
		short := runlock.NewRedisLock(s.redis.Client, 100*time.Millisecond)
		s.Require().NoError(short.Acquire(ctx, id.NewRunID()))

		time.Sleep(200 * time.Millisecond)
		s.NoError(short.Acquire(ctx, id.NewRunID()))
	})
}

func (s *RedisLockSuite) TestRelease() {
	ctx := context.Background()

	s.Run("owner release frees the lock", func() {
		runID := id.NewRunID()
		s.Require().NoError(s.lock.Acquire(ctx, runID))
		s.Require().NoError(s.lock.Release(ctx, runID))
		s.NoError(s.lock.Acquire(ctx, id.NewRunID()))
	})

	s.Run("non-owner release leaves the lock held", func() {
		s.Require().NoError(s.redis.FlushAll(ctx))
		owner := id.NewRunID()
		s.Require().NoError(s.lock.Acquire(ctx, owner))

		s.NoError(s.lock.Release(ctx, id.NewRunID()))
		s.ErrorIs(s.lock.Acquire(ctx, id.NewRunID()), sentinel.ErrRunActive)
	})

	s.Run("release of an absent lock is a no-op", func() {
		s.Require().NoError(s.redis.FlushAll(ctx))
		s.NoError(s.lock.Release(ctx, id.NewRunID()))
	})

	s.Run("stale release never frees a successor's lock", func() {
		s.Require().NoError(s.redis.FlushAll(ctx))
		short := runlock.NewRedisLock(s.redis.Client, 100*time.Millisecond)
		stale := id.NewRunID()
		s.Require().NoError(short.Acquire(ctx, stale))

		time.Sleep(200 * time.Millisecond)
		successor := id.NewRunID()
		s.Require().NoError(s.lock.Acquire(ctx, successor))

		s.NoError(short.Release(ctx, stale))
		s.ErrorIs(s.lock.Acquire(ctx, id.NewRunID()), sentinel.ErrRunActive)
	})
}
