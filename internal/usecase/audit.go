package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
)

// AuditEntry is the caller-facing shape of a record to append. Timestamp
// and ordering are assigned by the service.
type AuditEntry struct {
	ActorID   string
	Action    string
	Outcome   domain.AuditOutcome
	SourceIP  string
	UserAgent string
}

// AuditService is the single write path to the security log. Record is
// best-effort and never fails the calling operation; RecordMandatory fails
// closed when no sink can take the record. Every record is also mirrored
// onto the event stream, best-effort.
type AuditService struct {
	store     port.AuditStore
	fallback  port.AuditFallback
	publisher port.EventPublisher
	logger    *zap.Logger

	now func() time.Time
}

// NewAuditService constructs an AuditService. The fallback and publisher
// may be nil when the deployment does not configure them.
func NewAuditService(store port.AuditStore, fallback port.AuditFallback, publisher port.EventPublisher, logger *zap.Logger) *AuditService {
	return &AuditService{
		store:     store,
		fallback:  fallback,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *AuditService) WithClock(now func() time.Time) *AuditService {
	s.now = now
	return s
}

func (s *AuditService) build(entry AuditEntry) domain.AuditRecord {
	record := domain.AuditRecord{
		Timestamp: s.now().UTC(),
		Action:    entry.Action,
		Outcome:   entry.Outcome,
		SourceIP:  entry.SourceIP,
		UserAgent: entry.UserAgent,
	}
	if entry.ActorID != "" {
		actor := entry.ActorID
		record.ActorID = &actor
	}
	return record
}

func (s *AuditService) persist(ctx context.Context, record domain.AuditRecord) error {
	primaryErr := s.store.Append(ctx, record)
	if primaryErr == nil {
		return nil
	}

	s.logger.Error("audit primary store unavailable",
		zap.String("action", record.Action),
		zap.Error(primaryErr),
	)

	if s.fallback == nil {
		return primaryErr
	}

	if err := s.fallback.Append(ctx, record); err != nil {
		s.logger.Error("audit fallback unavailable",
			zap.String("action", record.Action),
			zap.Error(err),
		)
		return fmt.Errorf("audit fallback append: %w", err)
	}

	return nil
}

func (s *AuditService) mirror(ctx context.Context, record domain.AuditRecord) {
	if s.publisher == nil {
		return
	}

	event := domain.AuditRecordedEvent{
		EventID:   uuid.NewString(),
		Timestamp: record.Timestamp,
		ActorID:   record.ActorID,
		Action:    record.Action,
		Outcome:   string(record.Outcome),
		SourceIP:  record.SourceIP,
		UserAgent: record.UserAgent,
	}

	if err := s.publisher.PublishAuditRecorded(ctx, event); err != nil {
		s.logger.Warn("audit event mirror failed",
			zap.String("action", record.Action),
			zap.Error(err),
		)
	}
}

// Record appends an entry best-effort. Failures are logged and swallowed
// so the triggering operation is never disturbed.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	record := s.build(entry)

	if err := s.persist(ctx, record); err != nil {
		s.logger.Error("audit record lost",
			zap.String("action", record.Action),
			zap.Error(err),
		)
		return
	}

	s.mirror(ctx, record)
}

// RecordMandatory appends an entry and fails when neither sink accepted
// it. Operations whose audit trail is non-negotiable call this before
// applying their effects.
func (s *AuditService) RecordMandatory(ctx context.Context, entry AuditEntry) error {
	record := s.build(entry)

	if err := s.persist(ctx, record); err != nil {
		return fmt.Errorf("%w: %v", ErrAuditUnavailable, err)
	}

	s.mirror(ctx, record)
	return nil
}

// Query returns filtered records, newest first, alongside the total count
// for pagination.
func (s *AuditService) Query(ctx context.Context, filter port.AuditFilter, page port.AuditPage) ([]domain.AuditRecord, int, error) {
	records, err := s.store.Query(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit records: %w", err)
	}

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit records: %w", err)
	}

	return records, total, nil
}
