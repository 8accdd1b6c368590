package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/repository"
)

const (
	actionRoleChange = "account.role_change"
	actionActivate   = "account.activate"
	actionDeactivate = "account.deactivate"
)

// UserService covers administrative account management. Role changes and
// deactivations are guarded so the system can never lose its last active
// administrator.
type UserService struct {
	accounts port.AccountRepository
	reauth   *ReauthService
	audit    *AuditService
	logger   *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(accounts port.AccountRepository, reauth *ReauthService, audit *AuditService, logger *zap.Logger) *UserService {
	return &UserService{
		accounts: accounts,
		reauth:   reauth,
		audit:    audit,
		logger:   logger,
	}
}

// List returns accounts matching the filter.
func (s *UserService) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Get returns one account by identifier.
func (s *UserService) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// guardLastAdministrator rejects a change that would leave zero active
// administrators.
func (s *UserService) guardLastAdministrator(ctx context.Context, target *domain.Account) error {
	if target.Role != domain.RoleAdministrator || !target.IsActive {
		return nil
	}

	count, err := s.accounts.CountByRole(ctx, domain.RoleAdministrator)
	if err != nil {
		return fmt.Errorf("count administrators: %w", err)
	}
	if count <= 1 {
		return ErrLastAdministrator
	}

	return nil
}

// ChangeRole reassigns the target's role. The acting administrator must
// present a live re-authentication token, and the change is refused when
// its audit record cannot be persisted.
func (s *UserService) ChangeRole(ctx context.Context, actorID, targetID string, newRole domain.Role, reauthToken, sourceIP, userAgent string) error {
	if !newRole.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, newRole)
	}

	if err := s.reauth.Verify(ctx, actorID, reauthToken); err != nil {
		return err
	}

	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("get target account: %w", err)
	}

	if target.Role == newRole {
		return nil
	}

	if newRole != domain.RoleAdministrator {
		if err := s.guardLastAdministrator(ctx, target); err != nil {
			return err
		}
	}

	if err := s.audit.RecordMandatory(ctx, AuditEntry{
		ActorID:   actorID,
		Action:    actionRoleChange,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	}); err != nil {
		return err
	}

	if err := s.accounts.UpdateRole(ctx, targetID, newRole); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	s.logger.Info("role changed",
		zap.String("actor_id", actorID),
		zap.String("target_id", targetID),
		zap.String("new_role", string(newRole)),
	)

	return nil
}

// SetActive activates or deactivates the target account. Deactivating the
// last active administrator is refused.
func (s *UserService) SetActive(ctx context.Context, actorID, targetID string, active bool, sourceIP, userAgent string) error {
	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("get target account: %w", err)
	}

	if target.IsActive == active {
		return nil
	}

	if !active {
		if err := s.guardLastAdministrator(ctx, target); err != nil {
			return err
		}
	}

	action := actionActivate
	if !active {
		action = actionDeactivate
	}

	if err := s.audit.RecordMandatory(ctx, AuditEntry{
		ActorID:   actorID,
		Action:    action,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	}); err != nil {
		return err
	}

	if err := s.accounts.SetActive(ctx, targetID, active); err != nil {
		return fmt.Errorf("set account active: %w", err)
	}

	return nil
}
