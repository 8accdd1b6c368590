package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/repository"
)

// LockoutRepository implements port.LockoutRepository using PostgreSQL.
// Counter updates go through single-statement upserts so concurrent
// failures on the same account serialize on the row and none are lost.
type LockoutRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewLockoutRepository wires a PostgreSQL-backed lockout repository.
func NewLockoutRepository(exec pgExecutor) *LockoutRepository {
	return &LockoutRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *LockoutRepository) WithTx(tx pgx.Tx) *LockoutRepository {
	if tx == nil {
		return r
	}
	return &LockoutRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Get retrieves the current lockout state for the account.
func (r *LockoutRepository) Get(ctx context.Context, accountID string) (*domain.LockoutState, error) {
	stmt, args, err := r.builder.
		Select("account_id", "failed_count", "first_failure_at", "locked_until").
		From("restaurant.lockout_states").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select lockout sql: %w", err)
	}

	var state domain.LockoutState
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&state.AccountID,
		&state.FailedCount,
		&state.FirstFailureAt,
		&state.LockedUntil,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan lockout state: %w", err)
	}

	return &state, nil
}

// IncrementFailure adds one failed attempt atomically and returns the
// resulting state. The upsert stamps first_failure_at on the first failure
// of a streak and preserves it afterwards.
func (r *LockoutRepository) IncrementFailure(ctx context.Context, accountID string, at time.Time) (*domain.LockoutState, error) {
	stmt := `INSERT INTO restaurant.lockout_states (account_id, failed_count, first_failure_at, locked_until)
		VALUES ($1, 1, $2, NULL)
		ON CONFLICT (account_id) DO UPDATE
		SET failed_count = restaurant.lockout_states.failed_count + 1,
			first_failure_at = COALESCE(restaurant.lockout_states.first_failure_at, EXCLUDED.first_failure_at)
		RETURNING account_id, failed_count, first_failure_at, locked_until`

	var state domain.LockoutState
	if err := r.exec.QueryRow(ctx, stmt, accountID, at).Scan(
		&state.AccountID,
		&state.FailedCount,
		&state.FirstFailureAt,
		&state.LockedUntil,
	); err != nil {
		return nil, fmt.Errorf("increment lockout failure: %w", err)
	}

	return &state, nil
}

// Lock sets locked_until unless the account is already locked past the
// given instant. The failure counter keeps its value.
func (r *LockoutRepository) Lock(ctx context.Context, accountID string, until time.Time) error {
	stmt := `UPDATE restaurant.lockout_states
		SET locked_until = $2
		WHERE account_id = $1
		AND (locked_until IS NULL OR locked_until < $2)`

	if _, err := r.exec.Exec(ctx, stmt, accountID, until); err != nil {
		return fmt.Errorf("lock account: %w", err)
	}

	return nil
}

// Reset clears the counter and any lock, unconditionally.
func (r *LockoutRepository) Reset(ctx context.Context, accountID string) error {
	stmt, args, err := r.builder.
		Delete("restaurant.lockout_states").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset lockout sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("reset lockout state: %w", err)
	}

	return nil
}

var _ port.LockoutRepository = (*LockoutRepository)(nil)
