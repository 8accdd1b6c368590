package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/infra/security"
	"github.com/savoria/orderdesk/internal/repository"
)

const (
	actionPasswordChange = "password.change"
	actionQuestionSetup  = "security_question.setup"

	changeReasonUser  = "user_change"
	changeReasonReset = "reset"
)

// PasswordService handles password changes and security question setup.
// Changes require fresh re-authentication; resets go through ApplyReset,
// which waives the minimum age rule but keeps every other policy check.
type PasswordService struct {
	accounts     port.AccountRepository
	policy       *security.PasswordPolicy
	hasher       port.PasswordHasher
	reauth       *ReauthService
	audit        *AuditService
	publisher    port.EventPublisher
	historyDepth int
	logger       *zap.Logger

	now func() time.Time
}

// NewPasswordService constructs a PasswordService.
func NewPasswordService(
	accounts port.AccountRepository,
	policy *security.PasswordPolicy,
	hasher port.PasswordHasher,
	reauth *ReauthService,
	audit *AuditService,
	publisher port.EventPublisher,
	historyDepth int,
	logger *zap.Logger,
) *PasswordService {
	return &PasswordService{
		accounts:     accounts,
		policy:       policy,
		hasher:       hasher,
		reauth:       reauth,
		audit:        audit,
		publisher:    publisher,
		historyDepth: historyDepth,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *PasswordService) WithClock(now func() time.Time) *PasswordService {
	s.now = now
	return s
}

func (s *PasswordService) validate(ctx context.Context, account *domain.Account, candidate string, enforceAge bool) error {
	// The current password occupies one slot of the reuse window, so the
	// retained history contributes the remaining depth-1 hashes.
	var history []domain.PasswordHistoryEntry
	if retained := s.historyDepth - 1; retained > 0 {
		var err error
		history, err = s.accounts.ListPasswordHistory(ctx, account.ID, retained)
		if err != nil {
			return fmt.Errorf("list password history: %w", err)
		}
	}

	entries := append([]domain.PasswordHistoryEntry{{
		AccountID:    account.ID,
		PasswordHash: account.PasswordHash,
		SetAt:        account.PasswordSetAt,
	}}, history...)

	violations, err := s.policy.Validate(candidate, security.PolicyCheck{
		History:       entries,
		PasswordSetAt: account.PasswordSetAt,
		EnforceAge:    enforceAge,
		UserInputs:    []string{account.Username, account.Email},
		Now:           s.now(),
	})
	if err != nil {
		return fmt.Errorf("validate password: %w", err)
	}
	if len(violations) > 0 {
		return &PolicyViolationError{Violations: violations}
	}

	return nil
}

func (s *PasswordService) apply(ctx context.Context, account *domain.Account, newPassword, reason string) error {
	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	now := s.now().UTC()

	// The outgoing hash joins the history before the new one lands, so
	// reverting to it immediately still counts as reuse.
	entry := domain.PasswordHistoryEntry{
		ID:           uuid.NewString(),
		AccountID:    account.ID,
		PasswordHash: account.PasswordHash,
		SetAt:        account.PasswordSetAt,
	}
	if err := s.accounts.AddPasswordHistory(ctx, entry); err != nil {
		return fmt.Errorf("append password history: %w", err)
	}
	if err := s.accounts.TrimPasswordHistory(ctx, account.ID, s.historyDepth); err != nil {
		return fmt.Errorf("trim password history: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, newHash, security.PasswordAlgo, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// A password change voids any elevated trust issued under the old
	// password.
	if err := s.reauth.Invalidate(ctx, account.ID); err != nil {
		s.logger.Warn("invalidate reauth after password change",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}

	if s.publisher != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			AccountID: account.ID,
			ChangedAt: now,
			Reason:    reason,
		}
		if err := s.publisher.PublishPasswordChanged(ctx, event); err != nil {
			s.logger.Warn("publish password changed event",
				zap.String("account_id", account.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// ChangePassword replaces the password for a logged-in account. The caller
// must present a live re-authentication token and the current password.
func (s *PasswordService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword, reauthToken, sourceIP, userAgent string) error {
	if err := s.reauth.Verify(ctx, accountID, reauthToken); err != nil {
		return err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	match, err := s.hasher.Verify(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !match {
		s.audit.Record(ctx, AuditEntry{
			ActorID:   accountID,
			Action:    actionPasswordChange,
			Outcome:   domain.AuditFailure,
			SourceIP:  sourceIP,
			UserAgent: userAgent,
		})
		return ErrInvalidCredentials
	}

	if err := s.validate(ctx, account, newPassword, true); err != nil {
		return err
	}

	// The audit record is non-negotiable for password changes: without
	// it the change does not happen.
	if err := s.audit.RecordMandatory(ctx, AuditEntry{
		ActorID:   accountID,
		Action:    actionPasswordChange,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	}); err != nil {
		return err
	}

	return s.apply(ctx, account, newPassword, changeReasonUser)
}

// ApplyReset installs a new password at the end of a reset flow. The
// minimum age rule is waived; history and complexity still apply.
func (s *PasswordService) ApplyReset(ctx context.Context, accountID, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := s.validate(ctx, account, newPassword, false); err != nil {
		return err
	}

	return s.apply(ctx, account, newPassword, changeReasonReset)
}

// SetupSecurityQuestion stores hashed answer material for the reset flow.
// Requires fresh re-authentication. Replacing an existing question
// invalidates the previous answer.
func (s *PasswordService) SetupSecurityQuestion(ctx context.Context, accountID string, questionID int, answer, reauthToken, sourceIP, userAgent string) error {
	if err := s.reauth.Verify(ctx, accountID, reauthToken); err != nil {
		return err
	}

	questionText, ok := security.QuestionText(questionID)
	if !ok {
		return fmt.Errorf("%w: unknown security question %d", ErrInvalidInput, questionID)
	}

	normalized := security.NormalizeAnswer(answer)
	if security.TrivialAnswer(normalized, questionText) {
		return fmt.Errorf("%w: answer is too easy to guess", ErrInvalidInput)
	}

	answerHash, err := s.hasher.Hash(normalized)
	if err != nil {
		return fmt.Errorf("hash security answer: %w", err)
	}

	question := domain.SecurityQuestion{
		AccountID:  accountID,
		QuestionID: questionID,
		AnswerHash: answerHash,
		SetAt:      s.now().UTC(),
	}
	if err := s.accounts.UpsertSecurityQuestion(ctx, question); err != nil {
		return fmt.Errorf("store security question: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:   accountID,
		Action:    actionQuestionSetup,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})

	return nil
}

// Questions returns the catalog for the setup form.
func (s *PasswordService) Questions() []security.SecurityQuestionOption {
	return security.SecurityQuestions()
}
