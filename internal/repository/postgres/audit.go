package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
)

// AuditStore implements port.AuditStore using PostgreSQL. The table is
// append-only; no update or delete statements exist here.
type AuditStore struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAuditStore wires a PostgreSQL-backed audit store.
func NewAuditStore(exec pgExecutor) *AuditStore {
	return &AuditStore{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts one audit record. The id column is a sequence, so
// insertion order gives records after the same timestamp a total order.
func (s *AuditStore) Append(ctx context.Context, record domain.AuditRecord) error {
	var actorValue any
	if record.ActorID != nil && *record.ActorID != "" {
		actorValue = *record.ActorID
	}

	stmt, args, err := s.builder.
		Insert("restaurant.audit_log").
		Columns("ts", "actor_id", "action", "outcome", "source_ip", "user_agent").
		Values(record.Timestamp, actorValue, record.Action, string(record.Outcome), record.SourceIP, record.UserAgent).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit sql: %w", err)
	}

	if _, err := s.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}

	return nil
}

func (s *AuditStore) applyFilter(query squirrel.SelectBuilder, filter port.AuditFilter) squirrel.SelectBuilder {
	if filter.ActorID != "" {
		query = query.Where(squirrel.Eq{"actor_id": filter.ActorID})
	}
	if filter.Action != "" {
		query = query.Where(squirrel.Eq{"action": filter.Action})
	}
	if filter.Outcome != "" {
		query = query.Where(squirrel.Eq{"outcome": string(filter.Outcome)})
	}
	if !filter.Since.IsZero() {
		query = query.Where(squirrel.GtOrEq{"ts": filter.Since})
	}
	if !filter.Until.IsZero() {
		query = query.Where(squirrel.Lt{"ts": filter.Until})
	}
	return query
}

// Query returns filtered records, newest first.
func (s *AuditStore) Query(ctx context.Context, filter port.AuditFilter, page port.AuditPage) ([]domain.AuditRecord, error) {
	query := s.builder.
		Select("id", "ts", "actor_id", "action", "outcome", "source_ip", "user_agent").
		From("restaurant.audit_log").
		OrderBy("ts DESC", "id DESC")

	query = s.applyFilter(query, filter)

	if page.Limit > 0 {
		query = query.Limit(uint64(page.Limit))
	}
	if page.Offset > 0 {
		query = query.Offset(uint64(page.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query audit sql: %w", err)
	}

	rows, err := s.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AuditRecord, 0, page.Limit)
	for rows.Next() {
		var (
			record  domain.AuditRecord
			outcome string
		)
		if err := rows.Scan(
			&record.ID,
			&record.Timestamp,
			&record.ActorID,
			&record.Action,
			&outcome,
			&record.SourceIP,
			&record.UserAgent,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		record.Outcome = domain.AuditOutcome(outcome)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}

	return records, nil
}

// Count returns the number of records matching the filter.
func (s *AuditStore) Count(ctx context.Context, filter port.AuditFilter) (int, error) {
	query := s.builder.
		Select("COUNT(*)").
		From("restaurant.audit_log")

	query = s.applyFilter(query, filter)

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count audit sql: %w", err)
	}

	var count int
	if err := s.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}

	return count, nil
}

var _ port.AuditStore = (*AuditStore)(nil)
