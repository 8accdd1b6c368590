package port

import (
	"context"
	"time"

	"github.com/savoria/orderdesk/internal/core/domain"
)

// LockoutRepository persists per-account failure counters. Implementations
// must linearize updates for a single account (row lock or equivalent
// compare-and-swap) so concurrent failures are never lost or double
// counted; distinct accounts are fully independent.
type LockoutRepository interface {
	Get(ctx context.Context, accountID string) (*domain.LockoutState, error)
	// IncrementFailure atomically adds one failed attempt and returns the
	// resulting state. The first failure stamps FirstFailureAt.
	IncrementFailure(ctx context.Context, accountID string, at time.Time) (*domain.LockoutState, error)
	// Lock sets LockedUntil if the account is not already locked. The
	// counter keeps its value so attempts during lockout cannot restart
	// the cooldown window.
	Lock(ctx context.Context, accountID string, until time.Time) error
	// Reset clears the counter and any lock, unconditionally.
	Reset(ctx context.Context, accountID string) error
}
