package domain

import "time"

// LockoutState tracks consecutive authentication failures for one account.
// The counter resets on any successful authentication. Once it reaches the
// configured threshold the account is locked until LockedUntil; the counter
// keeps its value during the lockout so repeated attempts do not restart
// the cooldown window. Expiry is evaluated lazily on the next access.
type LockoutState struct {
	AccountID      string
	FailedCount    int
	FirstFailureAt *time.Time
	LockedUntil    *time.Time
}

// LockedAt reports whether the account is locked out at the given instant.
func (s LockoutState) LockedAt(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// RetryAfter returns the remaining lockout duration at the given instant,
// or zero when the account is not locked.
func (s LockoutState) RetryAfter(now time.Time) time.Duration {
	if !s.LockedAt(now) {
		return 0
	}
	return s.LockedUntil.Sub(now)
}
