package runlock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "reclass/pkg/domain"
	"reclass/pkg/platform/sentinel"
)

// =============================================================================
// Memory Lock Test Suite
// =============================================================================

type MemoryLockSuite struct {
	suite.Suite
	ctx  context.Context
	lock *MemoryLock
}

func TestMemoryLockSuite(t *testing.T) {
	suite.Run(t, new(MemoryLockSuite))
}

func (s *MemoryLockSuite) SetupTest() {
	s.ctx = context.Background()
	s.lock = NewMemoryLock()
}

func (s *MemoryLockSuite) TestAcquire() {
	s.Run("first acquire succeeds", func() {
		s.NoError(s.lock.Acquire(s.ctx, id.NewRunID()))
	})

	s.Run("second acquire fails while held", func() {
		err := s.lock.Acquire(s.ctx, id.NewRunID())
		s.ErrorIs(err, sentinel.ErrRunActive)
	})
}

func (s *MemoryLockSuite) TestRelease() {
	s.Run("release by the owner frees the lock", func() {
		runID := id.NewRunID()
		s.Require().NoError(s.lock.Acquire(s.ctx, runID))
		s.Require().NoError(s.lock.Release(s.ctx, runID))
		s.NoError(s.lock.Acquire(s.ctx, id.NewRunID()))
	})

	s.Run("release by a non-owner is a no-op", func() {
		owner := id.NewRunID()
		s.Require().NoError(s.lock.Acquire(s.ctx, owner))

		s.NoError(s.lock.Release(s.ctx, id.NewRunID()))
		s.ErrorIs(s.lock.Acquire(s.ctx, id.NewRunID()), sentinel.ErrRunActive)
	})

	s.Run("release without a holder is a no-op", func() {
		s.NoError(NewMemoryLock().Release(s.ctx, id.NewRunID()))
	})
}
