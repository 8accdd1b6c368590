package domain

import "time"

// AuditRecordedEvent mirrors an audit record onto the event stream for
// downstream consumers (SIEM, reporting). Delivery is best-effort and
// never blocks the operation that produced the record.
type AuditRecordedEvent struct {
	EventID   string
	Timestamp time.Time
	ActorID   *string
	Action    string
	Outcome   string
	SourceIP  string
	UserAgent string
}

// PasswordChangedEvent is published after a password change or reset
// completes so dependent systems can react (notification delivery,
// session invalidation elsewhere).
type PasswordChangedEvent struct {
	EventID   string
	AccountID string
	ChangedAt time.Time
	Reason    string
}
