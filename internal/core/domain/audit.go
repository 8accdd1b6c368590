package domain

import "time"

// AuditOutcome tags the result of a recorded security-relevant action.
type AuditOutcome string

const (
	AuditSuccess AuditOutcome = "success"
	AuditFailure AuditOutcome = "failure"
	AuditDenied  AuditOutcome = "denied"
)

// AuditRecord is an immutable entry in the append-only security log.
// ActorID is nil for actions that could not be attributed to an account
// (for example a login attempt against an unknown username). Total order
// is (Timestamp, ID) where ID is the insertion sequence.
type AuditRecord struct {
	ID        int64
	Timestamp time.Time
	ActorID   *string
	Action    string
	Outcome   AuditOutcome
	SourceIP  string
	UserAgent string
}
