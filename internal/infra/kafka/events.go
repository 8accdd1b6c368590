package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	AccountID string           `json:"account_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAuditRecorded publishes orderdesk.audit.recorded events.
func (p *EventPublisher) PublishAuditRecorded(ctx context.Context, event domain.AuditRecordedEvent) error {
	payload := struct {
		ActorID   *string   `json:"actor_id,omitempty"`
		Action    string    `json:"action"`
		Outcome   string    `json:"outcome"`
		SourceIP  string    `json:"source_ip,omitempty"`
		UserAgent string    `json:"user_agent,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}{
		ActorID:   event.ActorID,
		Action:    event.Action,
		Outcome:   event.Outcome,
		SourceIP:  event.SourceIP,
		UserAgent: event.UserAgent,
		Timestamp: event.Timestamp.UTC(),
	}

	actorID := ""
	if event.ActorID != nil {
		actorID = *event.ActorID
	}

	return p.publish(ctx, event.EventID, "audit.recorded", actorID, event.Timestamp, payload)
}

// PublishPasswordChanged publishes orderdesk.account.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		AccountID string    `json:"account_id"`
		ChangedAt time.Time `json:"changed_at"`
		Reason    string    `json:"reason"`
	}{
		AccountID: event.AccountID,
		ChangedAt: event.ChangedAt.UTC(),
		Reason:    event.Reason,
	}

	return p.publish(ctx, event.EventID, "account.password.changed", event.AccountID, event.ChangedAt, payload)
}

// Close shuts the underlying producer down.
func (p *EventPublisher) Close() error {
	return p.producer.Close()
}

var _ port.EventPublisher = (*EventPublisher)(nil)
