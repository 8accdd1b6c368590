package security

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
)

const (
	defaultMinPasswordLength = 8
	defaultMinZxcvbnScore    = 2
)

// commonPasswords is the built-in deny-list of frequently used passwords.
// Purely numeric candidates are rejected separately regardless of length.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"passw0rd":    {},
	"qwerty":      {},
	"qwerty123":   {},
	"letmein":     {},
	"welcome":     {},
	"welcome1":    {},
	"iloveyou":    {},
	"admin":       {},
	"abc123":      {},
	"monkey":      {},
	"dragon":      {},
	"sunshine":    {},
	"princess":    {},
	"football":    {},
	"baseball":    {},
	"trustno1":    {},
	"shadow":      {},
}

// PolicyCheck carries per-account context for password validation.
type PolicyCheck struct {
	// History holds the retained previous password hashes; the candidate
	// is re-hashed against each entry's embedded salt and parameters.
	History []domain.PasswordHistoryEntry
	// PasswordSetAt is when the current password was set. Zero for an
	// initial password set.
	PasswordSetAt time.Time
	// EnforceAge applies the minimum password age rule. Resets waive it.
	EnforceAge bool
	// UserInputs feed the strength estimator so passwords derived from
	// the username or email score poorly.
	UserInputs []string
	// Now is the reference instant for the age comparison.
	Now time.Time
}

// PasswordPolicy is the stateless validator for candidate passwords. It
// evaluates every rule and reports the complete violation set rather than
// stopping at the first failure, so users see all problems at once.
type PasswordPolicy struct {
	minLength      int
	minAge         time.Duration
	minZxcvbnScore int
	hasher         port.PasswordHasher
}

// NewPasswordPolicy constructs a policy with the provided minimum password
// age. The hasher is required for the reuse check.
func NewPasswordPolicy(hasher port.PasswordHasher, minAge time.Duration) *PasswordPolicy {
	return &PasswordPolicy{
		minLength:      defaultMinPasswordLength,
		minAge:         minAge,
		minZxcvbnScore: defaultMinZxcvbnScore,
		hasher:         hasher,
	}
}

// Validate checks the candidate against every policy rule. The returned
// slice is empty when the candidate is acceptable. The error return covers
// hasher failures only, never rule outcomes.
func (p *PasswordPolicy) Validate(candidate string, check PolicyCheck) ([]domain.PolicyViolation, error) {
	violations := make([]domain.PolicyViolation, 0, 4)

	if len([]rune(candidate)) < p.minLength {
		violations = append(violations, domain.ViolationTooShort)
	}

	violations = append(violations, characterClassViolations(candidate)...)

	if p.isDenied(candidate) {
		violations = append(violations, domain.ViolationCommonPassword)
	} else if p.minZxcvbnScore > 0 {
		if result := zxcvbn.PasswordStrength(candidate, check.UserInputs); result.Score < p.minZxcvbnScore {
			violations = append(violations, domain.ViolationWeakPassword)
		}
	}

	reused, err := p.matchesHistory(candidate, check.History)
	if err != nil {
		return nil, err
	}
	if reused {
		violations = append(violations, domain.ViolationReusedPassword)
	}

	if check.EnforceAge && !check.PasswordSetAt.IsZero() && p.minAge > 0 {
		if check.Now.Sub(check.PasswordSetAt) < p.minAge {
			violations = append(violations, domain.ViolationChangeTooRecent)
		}
	}

	return violations, nil
}

func (p *PasswordPolicy) isDenied(candidate string) bool {
	lowered := strings.ToLower(strings.TrimSpace(candidate))
	if lowered == "" {
		return true
	}
	if _, ok := commonPasswords[lowered]; ok {
		return true
	}

	numeric := true
	for _, r := range lowered {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	return numeric
}

func (p *PasswordPolicy) matchesHistory(candidate string, history []domain.PasswordHistoryEntry) (bool, error) {
	if p.hasher == nil {
		return false, nil
	}
	for _, entry := range history {
		match, err := p.hasher.Verify(candidate, entry.PasswordHash)
		if err != nil {
			return false, fmt.Errorf("compare password history: %w", err)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

func characterClassViolations(candidate string) []domain.PolicyViolation {
	var (
		hasUpper  bool
		hasLower  bool
		hasDigit  bool
		hasSymbol bool
	)

	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsSymbol(r) || unicode.IsPunct(r) || r == '_':
			hasSymbol = true
		}
	}

	violations := make([]domain.PolicyViolation, 0, 4)
	if !hasUpper {
		violations = append(violations, domain.ViolationMissingUpper)
	}
	if !hasLower {
		violations = append(violations, domain.ViolationMissingLower)
	}
	if !hasDigit {
		violations = append(violations, domain.ViolationMissingDigit)
	}
	if !hasSymbol {
		violations = append(violations, domain.ViolationMissingSymbol)
	}
	return violations
}
