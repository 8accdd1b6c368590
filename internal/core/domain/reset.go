package domain

import "time"

// ResetFlowState enumerates the password reset state machine.
type ResetFlowState string

const (
	// ResetStateQuestion means the security question was presented and an
	// answer is awaited.
	ResetStateQuestion ResetFlowState = "question"
	// ResetStateAnswered means the answer was accepted and a new password
	// may be submitted.
	ResetStateAnswered ResetFlowState = "answered"
)

// ResetFlow is the ephemeral state of one password reset attempt, keyed by
// an opaque flow identifier. AccountID is empty for decoy flows started
// against unknown usernames; decoy flows behave identically to real ones
// but can never complete. Flows expire on their own and are restartable.
type ResetFlow struct {
	ID         string
	AccountID  string
	QuestionID int
	State      ResetFlowState
	Attempts   int
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Decoy reports whether the flow targets no real account.
func (f ResetFlow) Decoy() bool {
	return f.AccountID == ""
}
