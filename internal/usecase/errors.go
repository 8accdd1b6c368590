package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/savoria/orderdesk/internal/core/domain"
)

var (
	// ErrInvalidCredentials indicates the username or password are
	// incorrect. Login paths return it for unknown usernames, wrong
	// passwords and locked accounts alike so responses never reveal
	// which was the case.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account is deactivated.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrAccountLocked indicates the account is under lockout cooldown.
	// Callers outside the login path may act on it; the login path folds
	// it into ErrInvalidCredentials.
	ErrAccountLocked = errors.New("account locked")
	// ErrReauthRequired indicates the operation needs a fresh
	// re-authentication token.
	ErrReauthRequired = errors.New("re-authentication required")
	// ErrReauthExpired indicates the presented re-authentication token
	// exists but its window elapsed.
	ErrReauthExpired = errors.New("re-authentication expired")
	// ErrDenied indicates the actor's role does not authorize the
	// operation.
	ErrDenied = errors.New("access denied")
	// ErrAuditUnavailable indicates a mandatory audit record could not
	// be persisted anywhere, so the guarded operation must not proceed.
	ErrAuditUnavailable = errors.New("audit log unavailable")
	// ErrResetFlowInvalid indicates the reset flow does not exist, has
	// expired, or is in the wrong state for the attempted step.
	ErrResetFlowInvalid = errors.New("reset flow invalid")
	// ErrAnswerRejected indicates a wrong security answer. Shares wording
	// across real and decoy flows.
	ErrAnswerRejected = errors.New("answer rejected")
	// ErrUsernameTaken indicates the requested username already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrLastAdministrator indicates the change would leave the system
	// without an active administrator.
	ErrLastAdministrator = errors.New("cannot remove the last administrator")
	// ErrQuestionNotSet indicates the account has no security question
	// configured.
	ErrQuestionNotSet = errors.New("security question not set")
	// ErrInvalidTransition indicates the order status change is not
	// allowed from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidInput indicates a request field failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// PolicyViolationError carries the full set of password policy breaches
// for one candidate password.
type PolicyViolationError struct {
	Violations []domain.PolicyViolation
}

// Error lists every violated rule.
func (e *PolicyViolationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, string(v))
	}
	return fmt.Sprintf("password policy: %s", strings.Join(parts, ", "))
}

// AsPolicyViolation unwraps a PolicyViolationError if err carries one.
func AsPolicyViolation(err error) (*PolicyViolationError, bool) {
	var pv *PolicyViolationError
	if errors.As(err, &pv) {
		return pv, true
	}
	return nil, false
}
