package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/savoria/orderdesk/internal/core/domain"
)

func TestAuthorizer_GrantTable(t *testing.T) {
	audit, _ := newTestAudit(t)
	authz := NewAuthorizer(audit, zaptest.NewLogger(t))

	cases := []struct {
		role     domain.Role
		resource Resource
		action   Action
		allowed  bool
	}{
		{domain.RoleAdministrator, ResourceAudit, ActionRead, true},
		{domain.RoleAdministrator, ResourceUsers, ActionManage, true},
		{domain.RoleAdministrator, ResourceMenu, ActionManage, true},
		{domain.RoleAdministrator, ResourceOrders, ActionManage, true},
		{domain.RoleAdministrator, ResourceDashboard, ActionRead, true},

		{domain.RoleManager, ResourceMenu, ActionManage, true},
		{domain.RoleManager, ResourceOrders, ActionManage, true},
		{domain.RoleManager, ResourceDashboard, ActionRead, true},
		{domain.RoleManager, ResourceAudit, ActionRead, false},
		{domain.RoleManager, ResourceUsers, ActionRead, false},
		{domain.RoleManager, ResourceUsers, ActionManage, false},

		{domain.RoleCustomer, ResourceMenu, ActionRead, true},
		{domain.RoleCustomer, ResourceOrders, ActionCreate, true},
		{domain.RoleCustomer, ResourceOrders, ActionRead, true},
		{domain.RoleCustomer, ResourceOrders, ActionManage, false},
		{domain.RoleCustomer, ResourceMenu, ActionManage, false},
		{domain.RoleCustomer, ResourceAudit, ActionRead, false},
		{domain.RoleCustomer, ResourceUsers, ActionRead, false},
		{domain.RoleCustomer, ResourceDashboard, ActionRead, false},

		// Unknown roles hold nothing.
		{domain.Role("ghost"), ResourceMenu, ActionRead, false},
	}

	for _, tc := range cases {
		if got := authz.Allowed(tc.role, tc.resource, tc.action); got != tc.allowed {
			t.Fatalf("%s %s:%s = %v, want %v", tc.role, tc.resource, tc.action, got, tc.allowed)
		}
	}
}

func TestAuthorizer_AuthorizePassesWithoutAudit(t *testing.T) {
	audit, store := newTestAudit(t)
	authz := NewAuthorizer(audit, zaptest.NewLogger(t))

	err := authz.Authorize(context.Background(), "acct-1", domain.RoleManager, ResourceMenu, ActionManage, "", "")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("granted access must not be audited, got %d records", len(store.records))
	}
}

func TestAuthorizer_DenialIsAudited(t *testing.T) {
	audit, store := newTestAudit(t)
	authz := NewAuthorizer(audit, zaptest.NewLogger(t))

	err := authz.Authorize(context.Background(), "acct-1", domain.RoleCustomer, ResourceAudit, ActionRead, "203.0.113.9", "test-agent")
	if !errors.Is(err, ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}

	record := store.lastRecord(t)
	// The attempted resource and action are part of the trail entry.
	if record.Action != "authz.deny:audit:read" || record.Outcome != domain.AuditDenied {
		t.Fatalf("unexpected audit record %+v", record)
	}
	if record.ActorID == nil || *record.ActorID != "acct-1" {
		t.Fatalf("denial must name the actor, got %v", record.ActorID)
	}
}
