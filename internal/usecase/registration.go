package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/infra/security"
	"github.com/savoria/orderdesk/internal/repository"
)

const actionRegister = "account.register"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,64}$`)

// RegisterInput carries the fields for a self-service signup.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	SourceIP  string
	UserAgent string
}

// RegistrationService creates customer accounts. Staff roles are assigned
// afterwards by an administrator, never at signup.
type RegistrationService struct {
	accounts port.AccountRepository
	policy   *security.PasswordPolicy
	hasher   port.PasswordHasher
	audit    *AuditService
	logger   *zap.Logger

	now func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	accounts port.AccountRepository,
	policy *security.PasswordPolicy,
	hasher port.PasswordHasher,
	audit *AuditService,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		accounts: accounts,
		policy:   policy,
		hasher:   hasher,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *RegistrationService) WithClock(now func() time.Time) *RegistrationService {
	s.now = now
	return s
}

// Register validates input and creates an active customer account.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-64 characters of letters, digits, '_', '.' or '-'", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}

	violations, err := s.policy.Validate(input.Password, security.PolicyCheck{
		UserInputs: []string{username, email},
		Now:        s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("validate password: %w", err)
	}
	if len(violations) > 0 {
		return nil, &PolicyViolationError{Violations: violations}
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := domain.Account{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		Role:          domain.RoleCustomer,
		PasswordHash:  passwordHash,
		PasswordAlgo:  security.PasswordAlgo,
		IsActive:      true,
		CreatedAt:     now,
		PasswordSetAt: now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:   account.ID,
		Action:    actionRegister,
		Outcome:   domain.AuditSuccess,
		SourceIP:  input.SourceIP,
		UserAgent: input.UserAgent,
	})

	s.logger.Info("account registered",
		zap.String("account_id", account.ID),
		zap.String("username", username),
	)

	return &account, nil
}
