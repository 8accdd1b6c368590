package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/repository"
)

const testManagerPassword = "Copper!Lantern88"

type menuFixture struct {
	svc        *MenuService
	repo       *testMenuRepo
	auditStore *testAuditStore
	reauthTok  string
}

func newMenuFixture(t *testing.T) *menuFixture {
	t.Helper()

	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	hasher := testHasher(t)
	audit, auditStore := newTestAudit(t)

	hash, err := hasher.Hash(testManagerPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	accounts := newTestAccountRepo()
	accounts.add(domain.Account{ID: "mgr-1", Username: "shift", Role: domain.RoleManager, PasswordHash: hash, IsActive: true})

	reauth := NewReauthService(accounts, newTestReauthStore(), audit, hasher, 5*time.Minute, zaptest.NewLogger(t))

	token, _, err := reauth.Issue(context.Background(), "mgr-1", testManagerPassword, "", "")
	if err != nil {
		t.Fatalf("issue reauth token: %v", err)
	}
	// Drop the issuance record so tests assert only their own entries.
	auditStore.records = nil

	repo := newTestMenuRepo()
	svc := NewMenuService(repo, reauth, audit, zaptest.NewLogger(t)).
		WithClock(fixedClock(at))

	return &menuFixture{svc: svc, repo: repo, auditStore: auditStore, reauthTok: token}
}

func TestMenuService_CreateAndGet(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, "mgr-1", MenuInput{
		Name:        "Margherita",
		Description: "Tomato, mozzarella, basil",
		PriceCents:  1250,
		Available:   true,
	}, "203.0.113.9", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, ok := f.repo.items[item.ID]; !ok {
		t.Fatalf("expected item persisted")
	}

	got, err := f.svc.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Margherita" || got.PriceCents != 1250 {
		t.Fatalf("unexpected item %+v", got)
	}

	record := f.auditStore.lastRecord(t)
	if record.Action != "menu.create" || record.Outcome != domain.AuditSuccess {
		t.Fatalf("unexpected audit record %+v", record)
	}
}

func TestMenuService_CreateValidation(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	for _, input := range []MenuInput{
		{Name: "", PriceCents: 100},
		{Name: "   ", PriceCents: 100},
		{Name: "Soup", PriceCents: 0},
		{Name: "Soup", PriceCents: -5},
	} {
		if _, err := f.svc.Create(ctx, "mgr-1", input, "", ""); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput, got %v", input, err)
		}
	}
}

func TestMenuService_ListFiltersAvailability(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	f.repo.items["m-1"] = domain.MenuItem{ID: "m-1", Name: "Soup", PriceCents: 600, Available: true}
	f.repo.items["m-2"] = domain.MenuItem{ID: "m-2", Name: "Stew", PriceCents: 900, Available: false}

	all, err := f.svc.List(ctx, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}

	available, err := f.svc.List(ctx, true)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(available) != 1 || available[0].ID != "m-1" {
		t.Fatalf("expected only the available item, got %+v", available)
	}
}

func TestMenuService_Update(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	f.repo.items["m-1"] = domain.MenuItem{ID: "m-1", Name: "Soup", PriceCents: 600, Available: true}

	updated, err := f.svc.Update(ctx, "mgr-1", "m-1", MenuInput{
		Name:       "Onion Soup",
		PriceCents: 750,
		Available:  false,
	}, "", "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Onion Soup" || updated.PriceCents != 750 || updated.Available {
		t.Fatalf("unexpected item %+v", updated)
	}
	if record := f.auditStore.lastRecord(t); record.Action != "menu.update" {
		t.Fatalf("unexpected audit action %q", record.Action)
	}
}

func TestMenuService_UpdateUnknownItem(t *testing.T) {
	f := newMenuFixture(t)

	_, err := f.svc.Update(context.Background(), "mgr-1", "ghost", MenuInput{Name: "X", PriceCents: 100}, "", "")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMenuService_Delete(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	f.repo.items["m-1"] = domain.MenuItem{ID: "m-1", Name: "Soup", PriceCents: 600}

	if err := f.svc.Delete(ctx, "mgr-1", "m-1", f.reauthTok, "", ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := f.repo.items["m-1"]; ok {
		t.Fatalf("expected item removed")
	}
	if record := f.auditStore.lastRecord(t); record.Action != "menu.delete" {
		t.Fatalf("unexpected audit action %q", record.Action)
	}
}

func TestMenuService_DeleteRequiresReauth(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	f.repo.items["m-1"] = domain.MenuItem{ID: "m-1", Name: "Soup", PriceCents: 600}

	if err := f.svc.Delete(ctx, "mgr-1", "m-1", "", "", ""); !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("expected ErrReauthRequired, got %v", err)
	}
	if _, ok := f.repo.items["m-1"]; !ok {
		t.Fatalf("expected item untouched without step-up")
	}
}
