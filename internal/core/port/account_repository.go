package port

import (
	"context"
	"time"

	"github.com/savoria/orderdesk/internal/core/domain"
)

// AccountFilter narrows account listings.
type AccountFilter struct {
	Role     domain.Role
	IsActive *bool
	Limit    int
	Offset   int
}

// AccountRepository exposes persistence behavior for accounts, their
// password history, and their security question material.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	SetActive(ctx context.Context, id string, active bool) error
	UpdatePassword(ctx context.Context, id string, passwordHash, passwordAlgo string, setAt time.Time) error

	// RecordAuthSuccess and RecordAuthFailure stamp the last-use metadata
	// surfaced to the account owner after a successful login.
	RecordAuthSuccess(ctx context.Context, id string, at time.Time, sourceIP string) error
	RecordAuthFailure(ctx context.Context, id string, at time.Time, sourceIP string) error

	ListPasswordHistory(ctx context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error)
	AddPasswordHistory(ctx context.Context, entry domain.PasswordHistoryEntry) error
	TrimPasswordHistory(ctx context.Context, accountID string, maxEntries int) error

	GetSecurityQuestion(ctx context.Context, accountID string) (*domain.SecurityQuestion, error)
	UpsertSecurityQuestion(ctx context.Context, question domain.SecurityQuestion) error
}
