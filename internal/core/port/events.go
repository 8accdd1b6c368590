package port

import (
	"context"

	"github.com/savoria/orderdesk/internal/core/domain"
)

// EventPublisher emits security events onto the message stream. Publishing
// is best-effort: failures are logged by implementations and never
// propagate into the triggering operation.
type EventPublisher interface {
	PublishAuditRecorded(ctx context.Context, event domain.AuditRecordedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	Close() error
}
