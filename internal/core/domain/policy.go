package domain

// PolicyViolation identifies a single password policy rule breach. The
// policy engine evaluates every rule and reports the full set, so callers
// can surface all problems to the user at once.
type PolicyViolation string

const (
	ViolationTooShort        PolicyViolation = "min_length"
	ViolationMissingUpper    PolicyViolation = "missing_uppercase"
	ViolationMissingLower    PolicyViolation = "missing_lowercase"
	ViolationMissingDigit    PolicyViolation = "missing_digit"
	ViolationMissingSymbol   PolicyViolation = "missing_symbol"
	ViolationCommonPassword  PolicyViolation = "common_password"
	ViolationWeakPassword    PolicyViolation = "weak_password"
	ViolationReusedPassword  PolicyViolation = "password_reuse"
	ViolationChangeTooRecent PolicyViolation = "too_recent"
)
