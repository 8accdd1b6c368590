package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAuditRecorded logs audit.recorded events.
func (p *StubPublisher) PublishAuditRecorded(_ context.Context, event domain.AuditRecordedEvent) error {
	actorID := ""
	if event.ActorID != nil {
		actorID = *event.ActorID
	}
	payload := map[string]any{
		"actor_id":   event.ActorID,
		"action":     event.Action,
		"outcome":    event.Outcome,
		"source_ip":  event.SourceIP,
		"user_agent": event.UserAgent,
	}
	p.logEvent("audit.recorded", actorID, event.Timestamp, payload)
	return nil
}

// PublishPasswordChanged logs account.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"account_id": event.AccountID,
		"changed_at": event.ChangedAt,
		"reason":     event.Reason,
	}
	p.logEvent("account.password.changed", event.AccountID, event.ChangedAt, payload)
	return nil
}

// Close is a no-op for the stub.
func (p *StubPublisher) Close() error {
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
