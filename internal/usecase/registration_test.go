package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/infra/security"
)

func newRegistrationFixture(t *testing.T) (*RegistrationService, *testAccountRepo, *testAuditStore) {
	t.Helper()

	accounts := newTestAccountRepo()
	auditStore := &testAuditStore{}
	hasher := testHasher(t)
	log := zaptest.NewLogger(t)

	audit := NewAuditService(auditStore, nil, nil, log)
	policy := security.NewPasswordPolicy(hasher, 24*time.Hour)
	svc := NewRegistrationService(accounts, policy, hasher, audit, log)

	return svc, accounts, auditStore
}

func TestRegistrationService_Register(t *testing.T) {
	svc, accounts, auditStore := newRegistrationFixture(t)

	account, err := svc.Register(context.Background(), RegisterInput{
		Username: "  new.diner  ",
		Email:    "New.Diner@Example.COM",
		Password: testCurrentPassword,
		SourceIP: "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if account.Username != "new.diner" {
		t.Fatalf("expected trimmed username, got %q", account.Username)
	}
	if account.Email != "new.diner@example.com" {
		t.Fatalf("expected lowercased email, got %q", account.Email)
	}
	// Signups are always customers; staff roles come later from an admin.
	if account.Role != domain.RoleCustomer {
		t.Fatalf("expected customer role, got %q", account.Role)
	}
	if !account.IsActive {
		t.Fatalf("expected active account")
	}
	if account.PasswordHash == testCurrentPassword || account.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}

	if _, ok := accounts.accounts[account.ID]; !ok {
		t.Fatalf("expected account persisted")
	}
	record := auditStore.lastRecord(t)
	if record.Action != "account.register" || record.Outcome != domain.AuditSuccess {
		t.Fatalf("unexpected audit record %+v", record)
	}
}

func TestRegistrationService_RejectsTakenUsername(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)
	ctx := context.Background()

	input := RegisterInput{Username: "diner", Email: "a@example.com", Password: testCurrentPassword}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first register: %v", err)
	}

	input.Email = "b@example.com"
	_, err := svc.Register(ctx, input)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegistrationService_RejectsBadUsernames(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)

	for _, username := range []string{"", "ab", "has space", "way@too@odd", "x"} {
		_, err := svc.Register(context.Background(), RegisterInput{
			Username: username,
			Email:    "a@example.com",
			Password: testCurrentPassword,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("username %q: expected ErrInvalidInput, got %v", username, err)
		}
	}
}

func TestRegistrationService_RejectsBadEmail(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "diner",
		Email:    "not-an-email",
		Password: testCurrentPassword,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegistrationService_RejectsWeakPassword(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "diner",
		Email:    "diner@example.com",
		Password: "abc",
	})
	policyErr, ok := AsPolicyViolation(err)
	if !ok {
		t.Fatalf("expected policy violation, got %v", err)
	}
	if len(policyErr.Violations) == 0 {
		t.Fatalf("expected violations reported")
	}
}
