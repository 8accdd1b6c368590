package port

import (
	"context"
	"time"

	"github.com/savoria/orderdesk/internal/core/domain"
)

// ResetFlowStore persists ephemeral password reset flow state keyed by an
// opaque flow identifier. Flows expire with their TTL; abandoned flows need
// no cleanup beyond expiry and leak no state across accounts.
type ResetFlowStore interface {
	Create(ctx context.Context, flow domain.ResetFlow, ttl time.Duration) error
	Get(ctx context.Context, flowID string) (*domain.ResetFlow, error)
	// IncrementAttempts bumps the answer attempt counter and returns the
	// new value.
	IncrementAttempts(ctx context.Context, flowID string) (int, error)
	// MarkAnswered advances the flow to the answered state.
	MarkAnswered(ctx context.Context, flowID string) error
	// Consume removes the flow, enforcing single-use completion.
	Consume(ctx context.Context, flowID string) error
}
