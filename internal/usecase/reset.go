package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/infra/security"
	"github.com/savoria/orderdesk/internal/repository"
)

const (
	actionResetRequest  = "password.reset.request"
	actionResetAnswer   = "password.reset.answer"
	actionResetComplete = "password.reset.complete"
)

// ResetChallenge is the first-step response: an opaque flow handle and the
// security question to answer. Decoy flows produce the same shape.
type ResetChallenge struct {
	FlowID       string
	QuestionID   int
	QuestionText string
	ExpiresAt    time.Time
}

// ResetService runs the hashed security-question password reset in three
// steps: request, answer, complete. Unknown usernames get decoy flows that
// look and cost the same as real ones but can never reach completion, so
// the endpoint leaks no account existence signal.
type ResetService struct {
	accounts    port.AccountRepository
	flows       port.ResetFlowStore
	passwords   *PasswordService
	lockout     *LockoutService
	audit       *AuditService
	hasher      port.PasswordHasher
	flowTTL     time.Duration
	maxAttempts int
	logger      *zap.Logger

	// decoyHash absorbs a verify call on decoy flows so wrong answers
	// cost the same whether the account exists or not.
	decoyHash string

	now func() time.Time
}

// NewResetService constructs a ResetService.
func NewResetService(
	accounts port.AccountRepository,
	flows port.ResetFlowStore,
	passwords *PasswordService,
	lockout *LockoutService,
	audit *AuditService,
	hasher port.PasswordHasher,
	flowTTL time.Duration,
	maxAttempts int,
	logger *zap.Logger,
) (*ResetService, error) {
	decoySecret, err := security.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate decoy secret: %w", err)
	}
	decoyHash, err := hasher.Hash(decoySecret)
	if err != nil {
		return nil, fmt.Errorf("hash decoy secret: %w", err)
	}

	return &ResetService{
		accounts:    accounts,
		flows:       flows,
		passwords:   passwords,
		lockout:     lockout,
		audit:       audit,
		hasher:      hasher,
		flowTTL:     flowTTL,
		maxAttempts: maxAttempts,
		logger:      logger,
		decoyHash:   decoyHash,
		now:         time.Now,
	}, nil
}

// WithClock overrides the time source. Intended for tests.
func (s *ResetService) WithClock(now func() time.Time) *ResetService {
	s.now = now
	return s
}

// Request starts a reset flow for the username and returns the question
// to answer. The response shape and timing are identical whether the
// username exists, so callers learn nothing from this step.
func (s *ResetService) Request(ctx context.Context, username, sourceIP, userAgent string) (*ResetChallenge, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	now := s.now().UTC()
	flow := domain.ResetFlow{
		ID:        security.HashToken(uuid.NewString())[:32],
		State:     domain.ResetStateQuestion,
		CreatedAt: now,
		ExpiresAt: now.Add(s.flowTTL),
	}

	actorID := ""
	account, err := s.accounts.GetByUsername(ctx, username)
	switch {
	case err == nil:
		question, qerr := s.accounts.GetSecurityQuestion(ctx, account.ID)
		if qerr == nil {
			flow.AccountID = account.ID
			flow.QuestionID = question.QuestionID
			actorID = account.ID
		} else if errors.Is(qerr, repository.ErrNotFound) {
			// No question on file: fall through to a decoy so the
			// response stays indistinguishable.
			flow.QuestionID = security.DecoyQuestionID(username)
		} else {
			return nil, fmt.Errorf("get security question: %w", qerr)
		}
	case errors.Is(err, repository.ErrNotFound):
		// Unknown usernames still pay for the question lookup, so both
		// branches make the same number of store roundtrips.
		if _, qerr := s.accounts.GetSecurityQuestion(ctx, flow.ID); qerr != nil && !errors.Is(qerr, repository.ErrNotFound) {
			return nil, fmt.Errorf("get security question: %w", qerr)
		}
		flow.QuestionID = security.DecoyQuestionID(username)
	default:
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if err := s.flows.Create(ctx, flow, s.flowTTL); err != nil {
		return nil, fmt.Errorf("create reset flow: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:   actorID,
		Action:    actionResetRequest,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})

	questionText, _ := security.QuestionText(flow.QuestionID)
	return &ResetChallenge{
		FlowID:       flow.ID,
		QuestionID:   flow.QuestionID,
		QuestionText: questionText,
		ExpiresAt:    flow.ExpiresAt,
	}, nil
}

func (s *ResetService) loadFlow(ctx context.Context, flowID string) (*domain.ResetFlow, error) {
	flow, err := s.flows.Get(ctx, flowID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResetFlowInvalid
		}
		return nil, fmt.Errorf("get reset flow: %w", err)
	}

	if !s.now().Before(flow.ExpiresAt) {
		return nil, ErrResetFlowInvalid
	}

	return flow, nil
}

// Answer checks the security answer for the flow. Wrong answers on real
// and decoy flows share wording, cost and attempt accounting; exceeding
// the attempt budget burns the flow.
func (s *ResetService) Answer(ctx context.Context, flowID, answer, sourceIP, userAgent string) error {
	flow, err := s.loadFlow(ctx, flowID)
	if err != nil {
		return err
	}
	if flow.State != domain.ResetStateQuestion {
		return ErrResetFlowInvalid
	}

	attempts, err := s.flows.IncrementAttempts(ctx, flowID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetFlowInvalid
		}
		return fmt.Errorf("count reset attempt: %w", err)
	}
	if attempts > s.maxAttempts {
		if err := s.flows.Consume(ctx, flowID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("burn exhausted reset flow", zap.Error(err))
		}
		return ErrResetFlowInvalid
	}

	normalized := security.NormalizeAnswer(answer)

	if flow.Decoy() {
		// Same hashing cost as a real comparison, always rejected.
		_, _ = s.hasher.Verify(normalized, s.decoyHash)
		s.audit.Record(ctx, AuditEntry{
			Action:    actionResetAnswer,
			Outcome:   domain.AuditFailure,
			SourceIP:  sourceIP,
			UserAgent: userAgent,
		})
		return ErrAnswerRejected
	}

	question, err := s.accounts.GetSecurityQuestion(ctx, flow.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetFlowInvalid
		}
		return fmt.Errorf("get security question: %w", err)
	}

	match, err := s.hasher.Verify(normalized, question.AnswerHash)
	if err != nil {
		return fmt.Errorf("verify security answer: %w", err)
	}
	if !match {
		// Wrong answers count against the same lockout as failed logins.
		if _, _, err := s.lockout.RecordFailure(ctx, flow.AccountID); err != nil {
			s.logger.Warn("record reset answer failure",
				zap.String("account_id", flow.AccountID), zap.Error(err))
		}
		s.audit.Record(ctx, AuditEntry{
			ActorID:   flow.AccountID,
			Action:    actionResetAnswer,
			Outcome:   domain.AuditFailure,
			SourceIP:  sourceIP,
			UserAgent: userAgent,
		})
		return ErrAnswerRejected
	}

	if err := s.flows.MarkAnswered(ctx, flowID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetFlowInvalid
		}
		return fmt.Errorf("advance reset flow: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:   flow.AccountID,
		Action:    actionResetAnswer,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})

	return nil
}

// Complete installs the new password for an answered flow and consumes
// it. Decoy flows can never be answered, so they can never reach here.
func (s *ResetService) Complete(ctx context.Context, flowID, newPassword, sourceIP, userAgent string) error {
	flow, err := s.loadFlow(ctx, flowID)
	if err != nil {
		return err
	}
	if flow.State != domain.ResetStateAnswered || flow.Decoy() {
		return ErrResetFlowInvalid
	}

	if err := s.passwords.ApplyReset(ctx, flow.AccountID, newPassword); err != nil {
		return err
	}

	if err := s.flows.Consume(ctx, flowID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("consume completed reset flow", zap.Error(err))
	}

	// A successful reset also clears any lockout so the owner can log in
	// with the new password immediately.
	if err := s.lockout.RecordSuccess(ctx, flow.AccountID); err != nil {
		s.logger.Warn("clear lockout after reset",
			zap.String("account_id", flow.AccountID),
			zap.Error(err),
		)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:   flow.AccountID,
		Action:    actionResetComplete,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})

	return nil
}
