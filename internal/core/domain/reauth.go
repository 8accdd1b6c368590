package domain

import "time"

// ReauthToken grants short-lived elevated trust for sensitive operations.
// At most one live token exists per account; issuing a new one replaces
// the previous token atomically. Expiry is checked by timestamp comparison
// at verification time, never by a background sweep.
type ReauthToken struct {
	AccountID string
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
