package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/savoria/orderdesk/internal/core/domain"
)

func TestAuditService_RecordAppendsAndMirrors(t *testing.T) {
	store := &testAuditStore{}
	publisher := &testPublisher{}
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	svc := NewAuditService(store, nil, publisher, zaptest.NewLogger(t)).WithClock(fixedClock(at))

	svc.Record(context.Background(), AuditEntry{
		ActorID:   "acct-1",
		Action:    "auth.login",
		Outcome:   domain.AuditSuccess,
		SourceIP:  "203.0.113.9",
		UserAgent: "test-agent",
	})

	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	record := store.records[0]
	if record.ActorID == nil || *record.ActorID != "acct-1" {
		t.Fatalf("unexpected actor: %v", record.ActorID)
	}
	if !record.Timestamp.Equal(at) {
		t.Fatalf("expected timestamp %v, got %v", at, record.Timestamp)
	}
	if record.Outcome != domain.AuditSuccess {
		t.Fatalf("unexpected outcome %q", record.Outcome)
	}

	if len(publisher.auditEvents) != 1 {
		t.Fatalf("expected 1 mirrored event, got %d", len(publisher.auditEvents))
	}
	event := publisher.auditEvents[0]
	if event.Action != "auth.login" || event.Outcome != "success" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.EventID == "" {
		t.Fatalf("expected generated event id")
	}
}

func TestAuditService_UnattributedActorIsNil(t *testing.T) {
	svc, store := newTestAudit(t)

	svc.Record(context.Background(), AuditEntry{
		Action:  "auth.login",
		Outcome: domain.AuditFailure,
	})

	if record := store.lastRecord(t); record.ActorID != nil {
		t.Fatalf("expected nil actor, got %q", *record.ActorID)
	}
}

func TestAuditService_FallbackTakesOverWhenPrimaryFails(t *testing.T) {
	store := &testAuditStore{appendErr: errStoreDown}
	fallback := &testAuditFallback{}

	svc := NewAuditService(store, fallback, nil, zaptest.NewLogger(t))

	err := svc.RecordMandatory(context.Background(), AuditEntry{
		Action:  "password.change",
		Outcome: domain.AuditSuccess,
	})
	if err != nil {
		t.Fatalf("expected fallback to absorb the record: %v", err)
	}
	if len(fallback.records) != 1 {
		t.Fatalf("expected 1 fallback record, got %d", len(fallback.records))
	}
}

func TestAuditService_MandatoryFailsWhenAllSinksAreDown(t *testing.T) {
	store := &testAuditStore{appendErr: errStoreDown}
	fallback := &testAuditFallback{appendErr: errStoreDown}

	svc := NewAuditService(store, fallback, nil, zaptest.NewLogger(t))

	err := svc.RecordMandatory(context.Background(), AuditEntry{
		Action:  "password.change",
		Outcome: domain.AuditSuccess,
	})
	if !errors.Is(err, ErrAuditUnavailable) {
		t.Fatalf("expected ErrAuditUnavailable, got %v", err)
	}
}

func TestAuditService_BestEffortRecordSwallowsSinkFailure(t *testing.T) {
	store := &testAuditStore{appendErr: errStoreDown}

	svc := NewAuditService(store, nil, nil, zaptest.NewLogger(t))

	// Must not panic or propagate; the record is logged and dropped.
	svc.Record(context.Background(), AuditEntry{
		Action:  "auth.logout",
		Outcome: domain.AuditSuccess,
	})

	if len(store.records) != 0 {
		t.Fatalf("expected no stored records, got %d", len(store.records))
	}
}

func TestAuditService_MirrorFailureDoesNotDisturbRecord(t *testing.T) {
	store := &testAuditStore{}
	publisher := &testPublisher{publishErr: errStoreDown}

	svc := NewAuditService(store, nil, publisher, zaptest.NewLogger(t))

	if err := svc.RecordMandatory(context.Background(), AuditEntry{
		Action:  "account.role_change",
		Outcome: domain.AuditSuccess,
	}); err != nil {
		t.Fatalf("mirror failure must not fail the record: %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(store.records))
	}
}
