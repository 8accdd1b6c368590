package port

import (
	"context"
	"time"

	"github.com/savoria/orderdesk/internal/core/domain"
)

// ReauthStore holds the single live re-authentication token per account.
// Put must replace any existing token atomically (single-writer-per-account
// discipline); retention must outlive ExpiresAt long enough for Verify to
// distinguish an expired token from one that never existed.
type ReauthStore interface {
	Put(ctx context.Context, token domain.ReauthToken, retain time.Duration) error
	Get(ctx context.Context, accountID string) (*domain.ReauthToken, error)
	Delete(ctx context.Context, accountID string) error
}
