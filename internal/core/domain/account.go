package domain

import "time"

// Role identifies the single access role held by an account. Roles are
// mutually exclusive; every account carries exactly one.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleManager       Role = "manager"
	RoleCustomer      Role = "customer"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleManager, RoleCustomer:
		return true
	}
	return false
}

// Account mirrors the persisted representation in the accounts table.
// Accounts are never destroyed, only deactivated, so audit history stays
// attributable.
type Account struct {
	ID            string
	Username      string
	Email         string
	Role          Role
	PasswordHash  string
	PasswordAlgo  string
	IsActive      bool
	CreatedAt     time.Time
	PasswordSetAt time.Time
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastFailureIP *string
}

// PasswordHistoryEntry tracks historical password hashes for reuse prevention.
// At most the most recent N entries are retained per account.
type PasswordHistoryEntry struct {
	ID           string
	AccountID    string
	PasswordHash string
	SetAt        time.Time
}

// SecurityQuestion stores the hashed answer material consumed by the
// password reset flow. Exactly one per account; replacing it invalidates
// the prior one. The answer is never stored or compared in clear text.
type SecurityQuestion struct {
	AccountID  string
	QuestionID int
	AnswerHash string
	SetAt      time.Time
}
