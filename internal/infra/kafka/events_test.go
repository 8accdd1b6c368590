package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T) (*EventPublisher, *fakeAsyncProducer) {
	t.Helper()

	asyncProducer := newFakeAsyncProducer()
	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "orderdesk",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	publisher := NewEventPublisher(producer, config.AppSettings{
		Name: "orderdesk",
		Env:  "test",
	}, zaptest.NewLogger(t))

	return publisher, asyncProducer
}

func receiveEnvelope(t *testing.T, asyncProducer *fakeAsyncProducer, wantTopic string) map[string]any {
	t.Helper()

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != wantTopic {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}
		return envelope
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
		return nil
	}
}

func TestPublishAuditRecorded(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	recordedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	actorID := "acct-1"
	event := domain.AuditRecordedEvent{
		EventID:   "evt-001",
		ActorID:   &actorID,
		Action:    "auth.login",
		Outcome:   "success",
		SourceIP:  "203.0.113.7",
		UserAgent: "orderdesk-web/1.0",
		Timestamp: recordedAt,
	}

	if err := publisher.PublishAuditRecorded(context.Background(), event); err != nil {
		t.Fatalf("PublishAuditRecorded returned error: %v", err)
	}

	envelope := receiveEnvelope(t, asyncProducer, "orderdesk.audit.recorded")

	if got := envelope["event_id"]; got != "evt-001" {
		t.Fatalf("unexpected event_id: %v", got)
	}
	if got := envelope["event_type"]; got != "audit.recorded" {
		t.Fatalf("unexpected event_type: %v", got)
	}
	if got := envelope["account_id"]; got != "acct-1" {
		t.Fatalf("unexpected account_id: %v", got)
	}

	timestamp, ok := envelope["timestamp"].(string)
	if !ok {
		t.Fatalf("timestamp not a string: %T", envelope["timestamp"])
	}
	if timestamp != recordedAt.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected timestamp: %s", timestamp)
	}

	payload, ok := envelope["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload not a map: %T", envelope["payload"])
	}
	if got := payload["actor_id"]; got != "acct-1" {
		t.Fatalf("unexpected actor_id: %v", got)
	}
	if got := payload["action"]; got != "auth.login" {
		t.Fatalf("unexpected action: %v", got)
	}
	if got := payload["outcome"]; got != "success" {
		t.Fatalf("unexpected outcome: %v", got)
	}
	if got := payload["source_ip"]; got != "203.0.113.7" {
		t.Fatalf("unexpected source_ip: %v", got)
	}

	metadata, ok := envelope["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
	}
	if metadata["service"] != "orderdesk" {
		t.Fatalf("unexpected metadata service: %v", metadata["service"])
	}
	if metadata["environment"] != "test" {
		t.Fatalf("unexpected metadata environment: %v", metadata["environment"])
	}
}

func TestPublishAuditRecordedUnattributed(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	event := domain.AuditRecordedEvent{
		EventID:   "evt-002",
		Action:    "auth.login",
		Outcome:   "failure",
		Timestamp: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	if err := publisher.PublishAuditRecorded(context.Background(), event); err != nil {
		t.Fatalf("PublishAuditRecorded returned error: %v", err)
	}

	envelope := receiveEnvelope(t, asyncProducer, "orderdesk.audit.recorded")

	if _, present := envelope["account_id"]; present {
		t.Fatalf("expected account_id omitted, got %v", envelope["account_id"])
	}

	payload, ok := envelope["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload not a map: %T", envelope["payload"])
	}
	if _, present := payload["actor_id"]; present {
		t.Fatalf("expected actor_id omitted, got %v", payload["actor_id"])
	}
}

func TestPublishPasswordChanged(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	changedAt := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	event := domain.PasswordChangedEvent{
		EventID:   "evt-003",
		AccountID: "acct-1",
		ChangedAt: changedAt,
		Reason:    "user_change",
	}

	if err := publisher.PublishPasswordChanged(context.Background(), event); err != nil {
		t.Fatalf("PublishPasswordChanged returned error: %v", err)
	}

	envelope := receiveEnvelope(t, asyncProducer, "orderdesk.account.password.changed")

	if got := envelope["event_type"]; got != "account.password.changed" {
		t.Fatalf("unexpected event_type: %v", got)
	}
	if got := envelope["account_id"]; got != "acct-1" {
		t.Fatalf("unexpected account_id: %v", got)
	}

	payload, ok := envelope["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload not a map: %T", envelope["payload"])
	}
	if got := payload["account_id"]; got != "acct-1" {
		t.Fatalf("unexpected payload account_id: %v", got)
	}
	if got := payload["reason"]; got != "user_change" {
		t.Fatalf("unexpected reason: %v", got)
	}

	changedAtValue, ok := payload["changed_at"].(string)
	if !ok {
		t.Fatalf("changed_at not a string: %T", payload["changed_at"])
	}
	if changedAtValue != changedAt.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected changed_at: %s", changedAtValue)
	}

	if got := envelope["version"]; got != schemaVersion {
		t.Fatalf("unexpected schema version: %v", got)
	}
}

func TestPublishGeneratesEventIDWhenMissing(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	event := domain.PasswordChangedEvent{
		AccountID: "acct-1",
		ChangedAt: time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
		Reason:    "reset",
	}

	if err := publisher.PublishPasswordChanged(context.Background(), event); err != nil {
		t.Fatalf("PublishPasswordChanged returned error: %v", err)
	}

	envelope := receiveEnvelope(t, asyncProducer, "orderdesk.account.password.changed")

	eventID, ok := envelope["event_id"].(string)
	if !ok || eventID == "" {
		t.Fatalf("expected generated event_id, got %v", envelope["event_id"])
	}
}
