package security

import (
	"errors"
	"testing"
	"time"

	"github.com/savoria/orderdesk/internal/core/domain"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestTokenManager_IssueAndVerify(t *testing.T) {
	manager, err := NewTokenManager(testSecret, "orderdesk-test", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	signed, claims, err := manager.Issue("acc-1", domain.RoleManager)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if claims.ID == "" {
		t.Fatalf("expected token ID to be set")
	}

	parsed, err := manager.Verify(signed)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if parsed.Subject != "acc-1" {
		t.Fatalf("expected subject acc-1, got %s", parsed.Subject)
	}
	if parsed.Role != string(domain.RoleManager) {
		t.Fatalf("expected role manager, got %s", parsed.Role)
	}
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	current := time.Now()
	manager, err := NewTokenManager(testSecret, "orderdesk-test", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	manager.WithClock(func() time.Time { return current })

	signed, _, err := manager.Issue("acc-1", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	current = current.Add(31 * time.Minute)

	if _, err := manager.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	issuerManager, err := NewTokenManager(testSecret, "orderdesk-test", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	otherManager, err := NewTokenManager([]byte("ffffffffffffffffffffffffffffffff"), "orderdesk-test", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	signed, _, err := issuerManager.Issue("acc-1", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := otherManager.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestTokenManager_RejectsWrongIssuer(t *testing.T) {
	issuerManager, err := NewTokenManager(testSecret, "someone-else", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	verifier, err := NewTokenManager(testSecret, "orderdesk-test", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	signed, _, err := issuerManager.Issue("acc-1", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := verifier.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}
}

func TestNewTokenManager_RejectsShortSecret(t *testing.T) {
	if _, err := NewTokenManager([]byte("short"), "orderdesk-test", time.Minute); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
}
