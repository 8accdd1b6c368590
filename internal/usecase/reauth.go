package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/infra/security"
	"github.com/savoria/orderdesk/internal/repository"
)

const actionReauth = "auth.reauth"

// ReauthService issues and checks the short-lived elevated-trust tokens
// required before sensitive operations. One live token per account;
// issuing replaces the previous token and a successful check consumes it.
type ReauthService struct {
	accounts port.AccountRepository
	store    port.ReauthStore
	audit    *AuditService
	hasher   port.PasswordHasher
	window   time.Duration
	logger   *zap.Logger

	now func() time.Time
}

// NewReauthService constructs a ReauthService.
func NewReauthService(
	accounts port.AccountRepository,
	store port.ReauthStore,
	audit *AuditService,
	hasher port.PasswordHasher,
	window time.Duration,
	logger *zap.Logger,
) *ReauthService {
	return &ReauthService{
		accounts: accounts,
		store:    store,
		audit:    audit,
		hasher:   hasher,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *ReauthService) WithClock(now func() time.Time) *ReauthService {
	s.now = now
	return s
}

// Issue re-verifies the account password and returns a fresh elevated
// token valid for the configured window. Any previously issued token is
// replaced.
func (s *ReauthService) Issue(ctx context.Context, accountID, password, sourceIP, userAgent string) (string, time.Time, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, fmt.Errorf("lookup account: %w", err)
	}

	match, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		s.audit.Record(ctx, AuditEntry{
			ActorID:   accountID,
			Action:    actionReauth,
			Outcome:   domain.AuditFailure,
			SourceIP:  sourceIP,
			UserAgent: userAgent,
		})
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, err := security.GenerateSecureToken(32)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate reauth token: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.window)

	// Retention is twice the window so an expired token is still found
	// and reported as expired rather than never issued.
	record := domain.ReauthToken{
		AccountID: accountID,
		TokenHash: security.HashToken(token),
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}
	if err := s.store.Put(ctx, record, 2*s.window); err != nil {
		return "", time.Time{}, fmt.Errorf("store reauth token: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:   accountID,
		Action:    actionReauth,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})

	return token, expiresAt, nil
}

// Verify consumes the account's live token if it matches and is within
// its window. ErrReauthExpired distinguishes a token that aged out from
// one that never matched.
func (s *ReauthService) Verify(ctx context.Context, accountID, token string) error {
	if token == "" {
		return ErrReauthRequired
	}

	stored, err := s.store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReauthRequired
		}
		return fmt.Errorf("get reauth token: %w", err)
	}

	presented := security.HashToken(token)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(stored.TokenHash)) != 1 {
		return ErrReauthRequired
	}

	if !s.now().Before(stored.ExpiresAt) {
		return ErrReauthExpired
	}

	// Single use: the token is gone once it has authorized an operation.
	if err := s.store.Delete(ctx, accountID); err != nil {
		return fmt.Errorf("consume reauth token: %w", err)
	}

	return nil
}

// Invalidate drops any live token for the account, for example after a
// password change.
func (s *ReauthService) Invalidate(ctx context.Context, accountID string) error {
	if err := s.store.Delete(ctx, accountID); err != nil {
		return fmt.Errorf("invalidate reauth token: %w", err)
	}
	return nil
}
