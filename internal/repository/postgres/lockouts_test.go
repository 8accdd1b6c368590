package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/savoria/orderdesk/internal/repository"
)

func TestLockoutRepository_GetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewLockoutRepository(mock)

	mock.ExpectQuery(`SELECT account_id, failed_count, first_failure_at, locked_until FROM restaurant\.lockout_states`).
		WithArgs("acct-1").
		WillReturnRows(pgxmock.NewRows([]string{"account_id", "failed_count", "first_failure_at", "locked_until"}))

	_, err = repo.Get(context.Background(), "acct-1")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLockoutRepository_IncrementFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewLockoutRepository(mock)

	at := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"account_id", "failed_count", "first_failure_at", "locked_until"}).
		AddRow("acct-1", 3, &at, nil)

	mock.ExpectQuery(`INSERT INTO restaurant\.lockout_states`).
		WithArgs("acct-1", at).
		WillReturnRows(rows)

	state, err := repo.IncrementFailure(context.Background(), "acct-1", at)
	if err != nil {
		t.Fatalf("IncrementFailure returned error: %v", err)
	}
	if state.FailedCount != 3 {
		t.Fatalf("expected count 3, got %d", state.FailedCount)
	}
	if state.FirstFailureAt == nil || !state.FirstFailureAt.Equal(at) {
		t.Fatalf("unexpected first failure %v", state.FirstFailureAt)
	}
	if state.LockedUntil != nil {
		t.Fatalf("expected no lock, got %v", state.LockedUntil)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLockoutRepository_Lock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewLockoutRepository(mock)

	until := time.Now().UTC().Add(15 * time.Minute)
	mock.ExpectExec(`UPDATE restaurant\.lockout_states`).
		WithArgs("acct-1", until).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.Lock(context.Background(), "acct-1", until); err != nil {
		t.Fatalf("Lock returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLockoutRepository_Reset(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewLockoutRepository(mock)

	mock.ExpectExec(`DELETE FROM restaurant\.lockout_states`).
		WithArgs("acct-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.Reset(context.Background(), "acct-1"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
