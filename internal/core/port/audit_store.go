package port

import (
	"context"
	"time"

	"github.com/savoria/orderdesk/internal/core/domain"
)

// AuditFilter narrows audit record queries. Zero values mean "no filter".
type AuditFilter struct {
	ActorID string
	Action  string
	Outcome domain.AuditOutcome
	Since   time.Time
	Until   time.Time
}

// AuditPage selects a window of the filtered, ordered result set.
type AuditPage struct {
	Limit  int
	Offset int
}

// AuditStore is an append-only recorder of security-relevant events.
// Records are never updated or deleted by this core.
type AuditStore interface {
	Append(ctx context.Context, record domain.AuditRecord) error
	Query(ctx context.Context, filter AuditFilter, page AuditPage) ([]domain.AuditRecord, error)
	Count(ctx context.Context, filter AuditFilter) (int, error)
}

// AuditFallback receives records the primary store could not accept. It is
// expected to be local and nearly always available (append-only file).
type AuditFallback interface {
	Append(ctx context.Context, record domain.AuditRecord) error
}
