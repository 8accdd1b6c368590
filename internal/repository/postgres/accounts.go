package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/repository"
)

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	if tx == nil {
		return r
	}
	return &AccountRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new account row.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	query := r.builder.Insert("restaurant.accounts").
		Columns(
			"id",
			"username",
			"email",
			"role",
			"password_hash",
			"password_algo",
			"is_active",
			"created_at",
			"password_set_at",
		).
		Values(
			account.ID,
			account.Username,
			account.Email,
			string(account.Role),
			account.PasswordHash,
			account.PasswordAlgo,
			account.IsActive,
			account.CreatedAt,
			account.PasswordSetAt,
		)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

func (r *AccountRepository) selectAccounts() squirrel.SelectBuilder {
	return r.builder.Select(
		"id",
		"username",
		"email",
		"role",
		"password_hash",
		"password_algo",
		"is_active",
		"created_at",
		"password_set_at",
		"last_success_at",
		"last_failure_at",
		"last_failure_ip",
	).From("restaurant.accounts")
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		role    string
	)

	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&role,
		&account.PasswordHash,
		&account.PasswordAlgo,
		&account.IsActive,
		&account.CreatedAt,
		&account.PasswordSetAt,
		&account.LastSuccessAt,
		&account.LastFailureAt,
		&account.LastFailureIP,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	account.Role = domain.Role(role)
	return &account, nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	stmt, args, err := r.selectAccounts().
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	return scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByUsername retrieves an account by its unique username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	stmt, args, err := r.selectAccounts().
		Where(squirrel.Eq{"username": username}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by username sql: %w", err)
	}

	return scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// List returns accounts matching the filter, newest first.
func (r *AccountRepository) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	query := r.selectAccounts().OrderBy("created_at DESC", "id DESC")

	if filter.Role != "" {
		query = query.Where(squirrel.Eq{"role": string(filter.Role)})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list accounts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// CountByRole returns the number of active accounts holding the role.
func (r *AccountRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	stmt, args, err := r.builder.
		Select("COUNT(*)").
		From("restaurant.accounts").
		Where(squirrel.Eq{"role": string(role), "is_active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count accounts sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts by role: %w", err)
	}

	return count, nil
}

// UpdateRole replaces the account's role.
func (r *AccountRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	stmt, args, err := r.builder.
		Update("restaurant.accounts").
		Set("role", string(role)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update role sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update account role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetActive toggles the account's active flag.
func (r *AccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	stmt, args, err := r.builder.
		Update("restaurant.accounts").
		Set("is_active", active).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update active sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update account active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword stores a new password hash and stamps password_set_at.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash, passwordAlgo string, setAt time.Time) error {
	stmt, args, err := r.builder.
		Update("restaurant.accounts").
		Set("password_hash", passwordHash).
		Set("password_algo", passwordAlgo).
		Set("password_set_at", setAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update account password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RecordAuthSuccess stamps last_success_at for the last-use banner.
func (r *AccountRepository) RecordAuthSuccess(ctx context.Context, id string, at time.Time, sourceIP string) error {
	stmt, args, err := r.builder.
		Update("restaurant.accounts").
		Set("last_success_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record auth success sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("record auth success: %w", err)
	}

	return nil
}

// RecordAuthFailure stamps last_failure_at and the originating IP.
func (r *AccountRepository) RecordAuthFailure(ctx context.Context, id string, at time.Time, sourceIP string) error {
	var ipValue any
	if sourceIP != "" {
		ipValue = sourceIP
	}

	stmt, args, err := r.builder.
		Update("restaurant.accounts").
		Set("last_failure_at", at).
		Set("last_failure_ip", ipValue).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record auth failure sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("record auth failure: %w", err)
	}

	return nil
}

// ListPasswordHistory returns the most recent retained hashes, newest first.
func (r *AccountRepository) ListPasswordHistory(ctx context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error) {
	query := r.builder.
		Select("id", "account_id", "password_hash", "set_at").
		From("restaurant.password_history").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("set_at DESC", "id DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list password history sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list password history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.PasswordHistoryEntry, 0, limit)
	for rows.Next() {
		var entry domain.PasswordHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.PasswordHash, &entry.SetAt); err != nil {
			return nil, fmt.Errorf("scan password history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate password history: %w", err)
	}

	return entries, nil
}

// AddPasswordHistory appends a retained hash entry.
func (r *AccountRepository) AddPasswordHistory(ctx context.Context, entry domain.PasswordHistoryEntry) error {
	stmt, args, err := r.builder.
		Insert("restaurant.password_history").
		Columns("id", "account_id", "password_hash", "set_at").
		Values(entry.ID, entry.AccountID, entry.PasswordHash, entry.SetAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert password history sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert password history: %w", err)
	}

	return nil
}

// TrimPasswordHistory drops entries beyond the newest maxEntries.
func (r *AccountRepository) TrimPasswordHistory(ctx context.Context, accountID string, maxEntries int) error {
	if maxEntries < 0 {
		return nil
	}

	// Keep the newest maxEntries rows and delete the rest.
	stmt := `DELETE FROM restaurant.password_history
		WHERE account_id = $1
		AND id NOT IN (
			SELECT id FROM restaurant.password_history
			WHERE account_id = $1
			ORDER BY set_at DESC, id DESC
			LIMIT $2
		)`

	if _, err := r.exec.Exec(ctx, stmt, accountID, maxEntries); err != nil {
		return fmt.Errorf("trim password history: %w", err)
	}

	return nil
}

// GetSecurityQuestion retrieves the account's security question material.
func (r *AccountRepository) GetSecurityQuestion(ctx context.Context, accountID string) (*domain.SecurityQuestion, error) {
	stmt, args, err := r.builder.
		Select("account_id", "question_id", "answer_hash", "set_at").
		From("restaurant.security_questions").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select security question sql: %w", err)
	}

	var question domain.SecurityQuestion
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&question.AccountID,
		&question.QuestionID,
		&question.AnswerHash,
		&question.SetAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan security question: %w", err)
	}

	return &question, nil
}

// UpsertSecurityQuestion replaces the account's security question material.
func (r *AccountRepository) UpsertSecurityQuestion(ctx context.Context, question domain.SecurityQuestion) error {
	stmt := `INSERT INTO restaurant.security_questions (account_id, question_id, answer_hash, set_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE
		SET question_id = EXCLUDED.question_id,
			answer_hash = EXCLUDED.answer_hash,
			set_at = EXCLUDED.set_at`

	if _, err := r.exec.Exec(ctx, stmt, question.AccountID, question.QuestionID, question.AnswerHash, question.SetAt); err != nil {
		return fmt.Errorf("upsert security question: %w", err)
	}

	return nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
