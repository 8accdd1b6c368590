package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/repository"
)

// LockoutService enforces the consecutive-failure lockout rule. Expiry is
// lazy: a lock past its cooldown is cleared on the next check rather than
// by a background job.
type LockoutService struct {
	lockouts  port.LockoutRepository
	threshold int
	cooldown  time.Duration
	logger    *zap.Logger

	now func() time.Time
}

// NewLockoutService constructs a LockoutService.
func NewLockoutService(lockouts port.LockoutRepository, threshold int, cooldown time.Duration, logger *zap.Logger) *LockoutService {
	return &LockoutService{
		lockouts:  lockouts,
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *LockoutService) WithClock(now func() time.Time) *LockoutService {
	s.now = now
	return s
}

// CheckAllowed reports whether the account may attempt authentication.
// An expired lock is cleared here, counter included, so the next failure
// streak starts from zero.
func (s *LockoutService) CheckAllowed(ctx context.Context, accountID string) error {
	state, err := s.lockouts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get lockout state: %w", err)
	}

	now := s.now()
	if state.LockedUntil == nil {
		return nil
	}

	if state.LockedAt(now) {
		return fmt.Errorf("%w: retry after %s", ErrAccountLocked, state.RetryAfter(now).Round(time.Second))
	}

	if err := s.lockouts.Reset(ctx, accountID); err != nil {
		return fmt.Errorf("clear expired lockout: %w", err)
	}

	return nil
}

// RecordFailure counts one failed attempt and applies the lock when the
// streak reaches the threshold. The counter keeps its value when the lock
// lands, so the lock duration is exactly one cooldown. Returns the state
// after the increment and whether this failure triggered the lock.
func (s *LockoutService) RecordFailure(ctx context.Context, accountID string) (*domain.LockoutState, bool, error) {
	now := s.now()

	state, err := s.lockouts.IncrementFailure(ctx, accountID, now)
	if err != nil {
		return nil, false, fmt.Errorf("increment lockout failure: %w", err)
	}

	if state.FailedCount < s.threshold || state.LockedAt(now) {
		return state, false, nil
	}

	until := now.Add(s.cooldown)
	if err := s.lockouts.Lock(ctx, accountID, until); err != nil {
		return nil, false, fmt.Errorf("apply lockout: %w", err)
	}
	state.LockedUntil = &until

	s.logger.Warn("account locked out",
		zap.String("account_id", accountID),
		zap.Int("failed_count", state.FailedCount),
		zap.Time("locked_until", until),
	)

	return state, true, nil
}

// RecordSuccess clears the failure streak after a successful
// authentication.
func (s *LockoutService) RecordSuccess(ctx context.Context, accountID string) error {
	if err := s.lockouts.Reset(ctx, accountID); err != nil {
		return fmt.Errorf("reset lockout state: %w", err)
	}
	return nil
}
