package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/infra/logger"
	"github.com/savoria/orderdesk/internal/infra/security"
	"github.com/savoria/orderdesk/internal/repository"
)

const (
	actionLogin  = "auth.login"
	actionLogout = "auth.logout"
)

// LoginInput carries the credentials and request metadata for one login
// attempt.
type LoginInput struct {
	Username  string
	Password  string
	SourceIP  string
	UserAgent string
}

// LastUse is the previous-use summary shown to the account owner after a
// successful login. Values predate the login that returned them.
type LastUse struct {
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastFailureIP *string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   domain.Account
	LastUse   LastUse
}

// AuthService coordinates login and logout. Every attempt leaves exactly
// one audit record, and failure responses never reveal whether the
// username exists, the password was wrong, or the account is locked.
type AuthService struct {
	accounts port.AccountRepository
	lockout  *LockoutService
	audit    *AuditService
	hasher   port.PasswordHasher
	tokens   *security.TokenManager
	logger   *zap.Logger

	// decoyHash absorbs a verify call for unknown usernames so lookup
	// misses cost the same as password mismatches.
	decoyHash string

	now func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(
	accounts port.AccountRepository,
	lockout *LockoutService,
	audit *AuditService,
	hasher port.PasswordHasher,
	tokens *security.TokenManager,
	log *zap.Logger,
) (*AuthService, error) {
	decoySecret, err := security.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate decoy secret: %w", err)
	}
	decoyHash, err := hasher.Hash(decoySecret)
	if err != nil {
		return nil, fmt.Errorf("hash decoy secret: %w", err)
	}

	return &AuthService{
		accounts:  accounts,
		lockout:   lockout,
		audit:     audit,
		hasher:    hasher,
		tokens:    tokens,
		logger:    log,
		decoyHash: decoyHash,
		now:       time.Now,
	}, nil
}

// WithClock overrides the time source. Intended for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) auditLogin(ctx context.Context, actorID string, outcome domain.AuditOutcome, input LoginInput) {
	s.audit.Record(ctx, AuditEntry{
		ActorID:   actorID,
		Action:    actionLogin,
		Outcome:   outcome,
		SourceIP:  input.SourceIP,
		UserAgent: input.UserAgent,
	})
}

// Login validates credentials and issues a session token. All failure
// branches record one audit entry and return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		s.auditLogin(ctx, "", domain.AuditFailure, input)
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Equalize timing with the password-verify path.
			_, _ = s.hasher.Verify(input.Password, s.decoyHash)
			s.auditLogin(ctx, "", domain.AuditFailure, input)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if err := s.lockout.CheckAllowed(ctx, account.ID); err != nil {
		if errors.Is(err, ErrAccountLocked) {
			s.auditLogin(ctx, account.ID, domain.AuditFailure, input)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := s.hasher.Verify(input.Password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !match || !account.IsActive {
		now := s.now().UTC()
		if _, _, err := s.lockout.RecordFailure(ctx, account.ID); err != nil {
			s.logger.Error("record lockout failure",
				zap.String("account_id", account.ID),
				zap.Error(err),
			)
		}
		if err := s.accounts.RecordAuthFailure(ctx, account.ID, now, input.SourceIP); err != nil {
			s.logger.Error("stamp auth failure",
				zap.String("account_id", account.ID),
				zap.Error(err),
			)
		}
		s.auditLogin(ctx, account.ID, domain.AuditFailure, input)
		return nil, ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, account.ID); err != nil {
		return nil, err
	}

	// Capture the banner data before this login overwrites it.
	lastUse := LastUse{
		LastSuccessAt: account.LastSuccessAt,
		LastFailureAt: account.LastFailureAt,
		LastFailureIP: account.LastFailureIP,
	}

	now := s.now().UTC()
	if err := s.accounts.RecordAuthSuccess(ctx, account.ID, now, input.SourceIP); err != nil {
		return nil, fmt.Errorf("stamp auth success: %w", err)
	}

	token, claims, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.auditLogin(ctx, account.ID, domain.AuditSuccess, input)

	s.logger.Info("login succeeded",
		zap.String("account_id", account.ID),
		zap.String("source_ip", logger.MaskIP(input.SourceIP)),
	)

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Account:   *account,
		LastUse:   lastUse,
	}, nil
}

// Logout records the end of a session. Session tokens are stateless, so
// the record is the only server-side effect.
func (s *AuthService) Logout(ctx context.Context, accountID, sourceIP, userAgent string) {
	s.audit.Record(ctx, AuditEntry{
		ActorID:   accountID,
		Action:    actionLogout,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})
}
